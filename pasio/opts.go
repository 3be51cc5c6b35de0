package pasio

import (
	"context"
	"fmt"

	"github.com/autosome-ru/papolarity/logcache"
	"github.com/go-playground/validator/v10"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"gopkg.in/yaml.v3"
)

// Algorithm names.
const (
	AlgorithmExact         = "exact"
	AlgorithmSlidingWindow = "slidingwindow"
	AlgorithmRounds        = "rounds"
)

// Opts configures a segmentation run.  Field names in YAML config files are
// given by the yaml tags.
type Opts struct {
	// Alpha and Beta are the shape and rate of the Gamma prior.
	Alpha float64 `yaml:"alpha" validate:"gte=0"`
	Beta  float64 `yaml:"beta" validate:"gte=0"`
	// Algorithm is one of the Algorithm* constants.
	Algorithm string `yaml:"algorithm" validate:"oneof=exact slidingwindow rounds"`
	// WindowSize and WindowShift are in split candidates, and are required
	// unless Algorithm is exact.
	WindowSize  int `yaml:"window_size" validate:"gte=0"`
	WindowShift int `yaml:"window_shift" validate:"gte=0"`
	// NumRounds bounds the rounds algorithm; 0 runs until convergence.
	NumRounds int `yaml:"num_rounds" validate:"gte=0"`
	// NoSplitConstant selects NotConstantReducer instead of NotZeroReducer
	// as the first reduction.
	NoSplitConstant bool `yaml:"no_split_constant"`
	// SplitAtGaps segments intervals separated by uncovered positions
	// independently instead of filling the gap with zeros.
	SplitAtGaps bool `yaml:"split_at_gaps"`

	LengthRegularization         float64 `yaml:"length_regularization"`
	LengthRegularizationFunction string  `yaml:"length_regularization_function" validate:"oneof=none revlog neglog"`
	SplitNumberRegularization    float64 `yaml:"split_number_regularization"`

	// CacheSize is the number of precomputed log/lgamma table entries.
	CacheSize int `yaml:"cache_size" validate:"gte=0"`

	// BedPath, if set, restricts the input to the intervals of a BED file
	// (or their complement, with InvertBed).
	BedPath   string `yaml:"bed"`
	InvertBed bool   `yaml:"bed_invert"`
	// BedOneBased reads BedPath as one-based [start, end] intervals.
	BedOneBased bool `yaml:"bed_one_based"`
	// Region, if set, restricts the input to one region, formatted as for
	// interval.ParseRegionString.  It cannot be combined with BedPath.
	Region string `yaml:"region"`

	// Format is the output format: tsv, tsv-bgz or rio.
	Format string `yaml:"format" validate:"oneof=tsv tsv-bgz rio"`
	// Parallelism is the number of runs segmented concurrently; 0 means
	// runtime.NumCPU().
	Parallelism int `yaml:"parallelism" validate:"gte=0"`
}

// DefaultOpts are the default options.
var DefaultOpts = Opts{
	Alpha:                        5,
	Beta:                         1,
	Algorithm:                    AlgorithmRounds,
	WindowSize:                   2500,
	WindowShift:                  1250,
	NumRounds:                    0,
	LengthRegularizationFunction: RegularizationNone,
	CacheSize:                    logcache.DefaultCacheSize,
	Format:                       "tsv",
	Parallelism:                  0,
}

var validate = validator.New()

// Validate checks o for consistency.
func (o *Opts) Validate() error {
	if err := validate.Struct(o); err != nil {
		return errors.E(errors.Invalid, "pasio: invalid options", err)
	}
	if o.Algorithm != AlgorithmExact {
		if o.WindowSize <= 0 || o.WindowShift <= 0 {
			return errors.E(errors.Invalid, fmt.Sprintf("pasio: window_size and window_shift are required for algorithm %s", o.Algorithm))
		}
		if o.WindowShift >= o.WindowSize {
			return errors.E(errors.Invalid, fmt.Sprintf("pasio: window_shift %d must be smaller than window_size %d", o.WindowShift, o.WindowSize))
		}
	}
	if o.LengthRegularization != 0 && o.LengthRegularizationFunction == RegularizationNone {
		return errors.E(errors.Invalid, fmt.Sprintf("pasio: length_regularization %v requires a length_regularization_function", o.LengthRegularization))
	}
	if o.LengthRegularizationFunction != RegularizationNone && o.LengthRegularization == 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("pasio: length_regularization_function %s requires a nonzero length_regularization", o.LengthRegularizationFunction))
	}
	if o.BedPath != "" && o.Region != "" {
		return errors.E(errors.Invalid, "pasio: bed and region can't be used together")
	}
	return nil
}

// LoadOpts reads YAML options from path on top of base.  Keys absent from
// the file keep their values from base; unknown keys are an error.
func LoadOpts(ctx context.Context, path string, base Opts) (opts Opts, err error) {
	opts = base
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, in, &err)
	dec := yaml.NewDecoder(in.Reader(ctx))
	dec.KnownFields(true)
	if err = dec.Decode(&opts); err != nil {
		err = errors.E(errors.Invalid, fmt.Sprintf("pasio.LoadOpts %s", path), err)
		return
	}
	return
}

// NewSplitter builds the splitter selected by opts.Algorithm:
//
//   exact:          SquareSplitter on all positions.
//   slidingwindow:  one SlidingWindowReducer pass, then SquareSplitter.
//   rounds:         SlidingWindowReducer repeated by a RoundReducer, then a
//                   NopSplitter that scores the converged candidates.
//
// Outside of exact, the first-pass reducer (NotZeroReducer, or
// NotConstantReducer with NoSplitConstant) runs ahead of every
// SquareSplitter invocation, including those inside windows.
func NewSplitter(opts Opts) (Splitter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	factory, err := NewScorerFactoryWithCache(opts.Alpha, opts.Beta, opts.CacheSize)
	if err != nil {
		return nil, err
	}
	lengthFunc, err := RegularizationFuncByName(opts.LengthRegularizationFunction)
	if err != nil {
		return nil, err
	}
	square := NewSquareSplitter(factory, SquareSplitterOpts{
		LengthMultiplier:      opts.LengthRegularization,
		LengthFunc:            lengthFunc,
		SplitNumberMultiplier: opts.SplitNumberRegularization,
		SplitNumberFunc:       Identity,
	})
	if opts.Algorithm == AlgorithmExact {
		return square, nil
	}

	var first Reducer = NotZeroReducer{}
	if opts.NoSplitConstant {
		first = NotConstantReducer{}
	}
	base := NewPipeline(square, first)
	window, err := NewSlidingWindowReducer(SlidingWindow{Size: opts.WindowSize, Shift: opts.WindowShift}, base)
	if err != nil {
		return nil, err
	}
	switch opts.Algorithm {
	case AlgorithmSlidingWindow:
		return NewPipeline(base, window), nil
	case AlgorithmRounds:
		return NewPipeline(NewNopSplitter(factory), NewRoundReducer(window, opts.NumRounds)), nil
	}
	return nil, errors.E(errors.Invalid, fmt.Sprintf("pasio: unknown algorithm %q", opts.Algorithm))
}
