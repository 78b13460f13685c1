package scoring

type options struct {
	weights Weights
	tables  Tables
}

// Option applies a configuration option to the Scorer.
type Option func(*options)

// WithWeights sets the blend weights.
func WithWeights(w Weights) Option {
	return func(o *options) {
		o.weights = w
	}
}

// WithTables replaces the heuristic tables. Tests use this to substitute
// minimal tables.
func WithTables(t Tables) Option {
	return func(o *options) {
		o.tables = t
	}
}
