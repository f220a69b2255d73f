/*
Package config holds the cache's configuration surface and loads it from a
YAML file, environment variables (CACHE_ prefix) and defaults, in that
order of precedence.
*/
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LayerConfig configures one local tier.
type LayerConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// MaxSize is the tier's entry capacity.
	MaxSize int `mapstructure:"max_size"`

	// TTL is the tier's default/maximum entry lifetime. For L1 this also
	// caps explicit per-call TTLs.
	TTL time.Duration `mapstructure:"ttl"`

	// Algorithm selects the eviction policy: lru, lfu, arc or fifo.
	Algorithm string `mapstructure:"algorithm"`
}

// InvalidationConfig configures the cross-instance invalidation bus.
type InvalidationConfig struct {
	Channels []string `mapstructure:"channels"`

	// Debounce is the quiet period during which broadcasts are merged.
	Debounce time.Duration `mapstructure:"debounce"`

	// BatchSize is the page/chunk size for pattern invalidation.
	BatchSize int `mapstructure:"batch_size"`

	// QueueSize bounds the pending broadcast queue.
	QueueSize int `mapstructure:"queue_size"`
}

// SerializationConfig configures the encoding pipeline.
type SerializationConfig struct {
	Type                 string `mapstructure:"type"` // msgpack, json or raw
	Compress             bool   `mapstructure:"compress"`
	CompressionThreshold int    `mapstructure:"compression_threshold"` // bytes
}

// ConsistencyConfig configures read/write propagation.
type ConsistencyConfig struct {
	ReadThrough      bool          `mapstructure:"read_through"`
	WriteThrough     bool          `mapstructure:"write_through"`
	WriteBehind      bool          `mapstructure:"write_behind"`
	WriteBehindDelay time.Duration `mapstructure:"write_behind_delay"`
}

// RedisConfig locates the authoritative store and pub/sub transport.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// Prefix namespaces all cache keys in Redis.
	Prefix string `mapstructure:"prefix"`
}

// Config is the full configuration surface.
type Config struct {
	Layers struct {
		L1 LayerConfig `mapstructure:"l1"`
		L2 LayerConfig `mapstructure:"l2"`
	} `mapstructure:"layers"`

	Invalidation  InvalidationConfig  `mapstructure:"invalidation"`
	Serialization SerializationConfig `mapstructure:"serialization"`
	Consistency   ConsistencyConfig   `mapstructure:"consistency"`
	Redis         RedisConfig         `mapstructure:"redis"`

	// SnapshotInterval is how often the metrics snapshot is emitted.
	SnapshotInterval time.Duration `mapstructure:"snapshot_interval"`
}

// Default returns the configuration used when nothing else is set: a small
// short-lived L1 in front of a larger L2, write-through consistency and
// msgpack serialization.
func Default() Config {
	var c Config
	c.Layers.L1 = LayerConfig{Enabled: true, MaxSize: 1000, TTL: time.Minute, Algorithm: "lru"}
	c.Layers.L2 = LayerConfig{Enabled: true, MaxSize: 10000, TTL: 10 * time.Minute, Algorithm: "arc"}
	c.Invalidation = InvalidationConfig{
		Channels:  []string{"cache:invalidate"},
		Debounce:  100 * time.Millisecond,
		BatchSize: 100,
		QueueSize: 1024,
	}
	c.Serialization = SerializationConfig{Type: "msgpack", Compress: true, CompressionThreshold: 1024}
	c.Consistency = ConsistencyConfig{
		ReadThrough:      true,
		WriteThrough:     true,
		WriteBehindDelay: time.Second,
	}
	c.Redis = RedisConfig{Addr: "localhost:6379", Prefix: "cache:"}
	c.SnapshotInterval = time.Minute
	return c
}

// Load reads the config file at path (optional: a missing file falls back
// to defaults plus environment) and applies CACHE_* env overrides, e.g.
// CACHE_REDIS_ADDR or CACHE_LAYERS_L1_MAX_SIZE.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("CACHE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// The file itself is optional; defaults plus env are enough.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("layers.l1.enabled", d.Layers.L1.Enabled)
	v.SetDefault("layers.l1.max_size", d.Layers.L1.MaxSize)
	v.SetDefault("layers.l1.ttl", d.Layers.L1.TTL)
	v.SetDefault("layers.l1.algorithm", d.Layers.L1.Algorithm)
	v.SetDefault("layers.l2.enabled", d.Layers.L2.Enabled)
	v.SetDefault("layers.l2.max_size", d.Layers.L2.MaxSize)
	v.SetDefault("layers.l2.ttl", d.Layers.L2.TTL)
	v.SetDefault("layers.l2.algorithm", d.Layers.L2.Algorithm)
	v.SetDefault("invalidation.channels", d.Invalidation.Channels)
	v.SetDefault("invalidation.debounce", d.Invalidation.Debounce)
	v.SetDefault("invalidation.batch_size", d.Invalidation.BatchSize)
	v.SetDefault("invalidation.queue_size", d.Invalidation.QueueSize)
	v.SetDefault("serialization.type", d.Serialization.Type)
	v.SetDefault("serialization.compress", d.Serialization.Compress)
	v.SetDefault("serialization.compression_threshold", d.Serialization.CompressionThreshold)
	v.SetDefault("consistency.read_through", d.Consistency.ReadThrough)
	v.SetDefault("consistency.write_through", d.Consistency.WriteThrough)
	v.SetDefault("consistency.write_behind", d.Consistency.WriteBehind)
	v.SetDefault("consistency.write_behind_delay", d.Consistency.WriteBehindDelay)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.prefix", d.Redis.Prefix)
	v.SetDefault("snapshot_interval", d.SnapshotInterval)
}

// Validate aggregates configuration errors.
func (c Config) Validate() error {
	var errs []string

	check := func(name string, l LayerConfig) {
		if !l.Enabled {
			return
		}
		if l.MaxSize < 1 {
			errs = append(errs, fmt.Sprintf("layers.%s.max_size must be >= 1", name))
		}
		switch l.Algorithm {
		case "lru", "lfu", "arc", "fifo":
		default:
			errs = append(errs, fmt.Sprintf("layers.%s.algorithm %q is not one of lru, lfu, arc, fifo", name, l.Algorithm))
		}
	}
	check("l1", c.Layers.L1)
	check("l2", c.Layers.L2)

	switch c.Serialization.Type {
	case "msgpack", "json", "raw", "":
	default:
		errs = append(errs, fmt.Sprintf("serialization.type %q is not one of msgpack, json, raw", c.Serialization.Type))
	}

	if c.Invalidation.BatchSize < 1 {
		errs = append(errs, "invalidation.batch_size must be >= 1")
	}
	if c.Consistency.WriteBehind && c.Consistency.WriteBehindDelay <= 0 {
		errs = append(errs, "consistency.write_behind_delay must be > 0 when write_behind is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
