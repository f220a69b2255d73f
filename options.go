package cache

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/krisalay/distributed-cache/invalidation"
	"github.com/krisalay/distributed-cache/types"
)

// Tier attributes where a read was served from.
type Tier int

const (
	// TierNone means a full miss across every tier.
	TierNone Tier = iota
	TierL1
	TierL2
	TierRemote

	// TierLoader means the value came from the read-through loader.
	TierLoader
)

func (t Tier) String() string {
	switch t {
	case TierL1:
		return "l1"
	case TierL2:
		return "l2"
	case TierRemote:
		return "remote"
	case TierLoader:
		return "loader"
	default:
		return "none"
	}
}

type options struct {
	logger       *zap.Logger
	remote       types.Remote
	transport    invalidation.Transport
	loader       types.Loader
	registerer   prometheus.Registerer
	instanceID   string
	refreshAhead time.Duration
}

// Option configures a TieredCache at construction.
type Option func(*options)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.logger = log }
}

// WithRemote injects the authoritative tier. Without this option the cache
// dials Redis from the configuration.
func WithRemote(r types.Remote) Option {
	return func(o *options) { o.remote = r }
}

// WithTransport injects the pub/sub transport for the invalidation bus.
// Defaults to Redis pub/sub on the same connection as the remote tier; an
// explicit nil-transport cache (no bus) is possible via WithRemote plus
// no transport when the remote is not Redis-backed.
func WithTransport(t invalidation.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithLoader sets the default read-through loader, consulted on a full
// miss when consistency.read_through is enabled.
func WithLoader(l types.Loader) Option {
	return func(o *options) { o.loader = l }
}

// WithRegisterer sets the Prometheus registerer for the metrics collector.
// Defaults to a private registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithInstanceID overrides the generated instance identity. Useful for
// simulating multiple instances inside one test process.
func WithInstanceID(id string) Option {
	return func(o *options) { o.instanceID = id }
}

// WithRefreshAhead enables background reload of entries whose remaining
// TTL drops below the threshold. Requires a loader.
func WithRefreshAhead(threshold time.Duration) Option {
	return func(o *options) { o.refreshAhead = threshold }
}

type getOptions struct {
	loader     types.Loader
	skipRemote bool
}

// GetOption configures a single Get call.
type GetOption func(*getOptions)

// WithGetLoader supplies a loader for this call only, overriding the
// cache-wide one.
func WithGetLoader(l types.Loader) GetOption {
	return func(o *getOptions) { o.loader = l }
}

// WithSkipRemote restricts the lookup to the process-local tiers.
func WithSkipRemote() GetOption {
	return func(o *getOptions) { o.skipRemote = true }
}

type deleteOptions struct {
	broadcast bool
}

// DeleteOption configures a single Delete call.
type DeleteOption func(*deleteOptions)

// WithoutBroadcast suppresses the invalidation broadcast for this delete.
// Pattern invalidation uses this per key and issues one merged broadcast
// at the end.
func WithoutBroadcast() DeleteOption {
	return func(o *deleteOptions) { o.broadcast = false }
}
