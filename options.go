package shapeseek

import (
	"time"

	"github.com/shapeseek/shapeseek/descriptor"
	"github.com/shapeseek/shapeseek/persistence"
)

const (
	// DefaultSearchLimit caps how many results one search may return.
	DefaultSearchLimit = 20

	// DefaultFlushInterval is the minimum spacing between automatic
	// snapshot flushes triggered by writes.
	DefaultFlushInterval = 30 * time.Second
)

type options struct {
	logger        *Logger
	metrics       MetricsCollector
	snapshotPath  string
	codec         persistence.Codec
	searchLimit   int
	flushInterval time.Duration
	extractorOpts []func(o *descriptor.Options)
}

// Option configures a Manager.
type Option func(*options)

// WithLogger sets the structured logger. Nil restores the default.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NewLogger(nil)
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics sink. Nil restores the no-op
// collector.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithSnapshotPath enables index snapshot persistence at the given file
// path. Without it the index lives only in memory and Initialize always
// rebuilds from the catalog.
func WithSnapshotPath(path string) Option {
	return func(o *options) { o.snapshotPath = path }
}

// WithSnapshotCodec sets the snapshot compression codec. The default is
// zstd.
func WithSnapshotCodec(c persistence.Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithSearchLimit overrides the maximum result count per search.
func WithSearchLimit(limit int) Option {
	return func(o *options) {
		if limit > 0 {
			o.searchLimit = limit
		}
	}
}

// WithFlushInterval sets the minimum spacing between automatic snapshot
// flushes. Zero disables automatic flushing; Flush can still be called
// explicitly.
func WithFlushInterval(d time.Duration) Option {
	return func(o *options) { o.flushInterval = d }
}

// WithExtractorOptions forwards options to the descriptor extractor, e.g.
// descriptor.WithSeed for reproducible ingestion.
func WithExtractorOptions(optFns ...func(o *descriptor.Options)) Option {
	return func(o *options) { o.extractorOpts = append(o.extractorOpts, optFns...) }
}

func defaultOptions() options {
	return options{
		logger:        NewLogger(nil),
		metrics:       NoopMetricsCollector{},
		codec:         persistence.CodecZstd,
		searchLimit:   DefaultSearchLimit,
		flushInterval: DefaultFlushInterval,
	}
}
