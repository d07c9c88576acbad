package analysis

import (
	"runtime"

	"github.com/matzehuels/depweight/pkg/errors"
)

// Options controls an analysis run.
type Options struct {
	// AllDependencies reports on every external package instead of only the
	// workspace's direct dependencies. IsDirect still marks the latter.
	AllDependencies bool

	// SkipUnsafe skips the unsafe-code scanner. Every unsafe report is then
	// absent.
	SkipUnsafe bool

	// Concurrency bounds how many reports are assembled at once.
	// Zero selects GOMAXPROCS.
	Concurrency int
}

// MaxConcurrency caps Options.Concurrency.
const MaxConcurrency = 256

// ValidateAndSetDefaults checks the options and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Concurrency < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "concurrency must not be negative: %d", o.Concurrency)
	}
	if o.Concurrency > MaxConcurrency {
		return errors.New(errors.ErrCodeInvalidInput, "concurrency must be at most %d: %d", MaxConcurrency, o.Concurrency)
	}
	if o.Concurrency == 0 {
		o.Concurrency = runtime.GOMAXPROCS(0)
	}
	return nil
}
