package tagdex

type options struct {
	hasher       Hasher
	guard        EntryGuard
	logger       *Logger
	metrics      MetricsCollector
	interceptors []Interceptor
}

func defaultOptions() options {
	return options{
		guard:   DefaultEntryGuard,
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
	}
}

// Option configures a collection at construction.
type Option func(*options)

// WithHasher replaces entry key resolution entirely. Determinism is the
// hasher's responsibility: it must return the same key for the same entry
// for as long as the entry is stored.
//
// If nil is passed, the built-in resolver is used.
func WithHasher(h Hasher) Option {
	return func(o *options) {
		o.hasher = h
	}
}

// WithEntryGuard sets the predicate every candidate entry must pass.
// Rejections surface as *InvalidEntryError before any mutation.
//
// If nil is passed, DefaultEntryGuard is used. Custom guards that still want
// to reject import wrappers should call DefaultEntryGuard themselves.
func WithEntryGuard(g EntryGuard) Option {
	return func(o *options) {
		if g == nil {
			g = DefaultEntryGuard
		}
		o.guard = g
	}
}

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector. If nil is passed,
// metrics are disabled.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsCollector{}
		}
		o.metrics = m
	}
}

// WithInterceptor appends an interceptor to the primitive chain.
func WithInterceptor(i Interceptor) Option {
	return func(o *options) {
		if i != nil {
			o.interceptors = append(o.interceptors, i)
		}
	}
}

func (o options) withoutInterceptors() options {
	o.interceptors = nil
	return o
}
