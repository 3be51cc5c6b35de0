package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/autosome-ru/papolarity/pasio"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
)

var (
	flagOpts   = pasio.DefaultOpts
	configPath = flag.String("config", "", "YAML file with options; flags set on the command line override it")
	outPath    = flag.String("out", "", "Output path (required)")
)

func init() {
	registerOptsFlags(flag.CommandLine, &flagOpts)
}

// registerOptsFlags binds fs to the fields of opts, using their current
// values as defaults.
func registerOptsFlags(fs *flag.FlagSet, opts *pasio.Opts) {
	fs.Float64Var(&opts.Alpha, "alpha", opts.Alpha, "Shape (alpha) of the Gamma prior on segment rates")
	fs.Float64Var(&opts.Beta, "beta", opts.Beta, "Rate (beta) of the Gamma prior on segment rates")
	fs.StringVar(&opts.Algorithm, "algorithm", opts.Algorithm, "Segmentation algorithm; 'exact', 'slidingwindow' and 'rounds' supported")
	fs.IntVar(&opts.WindowSize, "window-size", opts.WindowSize, "Window size, in split candidates, for slidingwindow and rounds")
	fs.IntVar(&opts.WindowShift, "window-shift", opts.WindowShift, "Shift between windows, in split candidates; must be smaller than -window-size")
	fs.IntVar(&opts.NumRounds, "num-rounds", opts.NumRounds, "Maximum number of rounds for the rounds algorithm; 0 = until no split point is removed")
	fs.BoolVar(&opts.NoSplitConstant, "no-split-constant", opts.NoSplitConstant, "Never split inside a run of equal counts")
	fs.BoolVar(&opts.SplitAtGaps, "split-at-gaps", opts.SplitAtGaps, "Segment intervals separated by uncovered positions independently instead of filling gaps with zeros")
	fs.Float64Var(&opts.LengthRegularization, "length-regularization", opts.LengthRegularization, "Penalty multiplier for the length of each segment")
	fs.StringVar(&opts.LengthRegularizationFunction, "length-regularization-function", opts.LengthRegularizationFunction, "Penalty function of segment length; 'none', 'revlog' (1/log(1+l)) and 'neglog' (-log(1+l)) supported")
	fs.Float64Var(&opts.SplitNumberRegularization, "split-number-regularization", opts.SplitNumberRegularization, "Penalty multiplier for each split")
	fs.IntVar(&opts.CacheSize, "cache-size", opts.CacheSize, "Number of precomputed log/lgamma table entries")
	fs.StringVar(&opts.BedPath, "bed", opts.BedPath, "Restrict segmentation to the intervals of this BED file")
	fs.BoolVar(&opts.BedOneBased, "bed-one-based", opts.BedOneBased, "Interpret -bed intervals as one-based [start, end] instead of zero-based [start, end)")
	fs.BoolVar(&opts.InvertBed, "bed-invert", opts.InvertBed, "Use the complement of -bed or -region instead")
	fs.StringVar(&opts.Region, "region", opts.Region, "Restrict segmentation to the specified region. Format as <contig ID>:<1-based first pos>-<last pos>, <contig ID>:<1-based pos>, or just <contig ID>")
	fs.StringVar(&opts.Format, "format", opts.Format, "Output format; 'tsv', 'tsv-bgz' and 'rio' supported")
	fs.IntVar(&opts.Parallelism, "parallelism", opts.Parallelism, "Maximum number of runs segmented concurrently; 0 = runtime.NumCPU()")
}

// resolveOpts layers the options in configPath, if any, under the flags that
// were set explicitly in fs.
func resolveOpts(ctx context.Context, fs *flag.FlagSet, fromFlags pasio.Opts, configPath string) (pasio.Opts, error) {
	if configPath == "" {
		return fromFlags, nil
	}
	opts, err := pasio.LoadOpts(ctx, configPath, pasio.DefaultOpts)
	if err != nil {
		return opts, err
	}
	overlay := flag.NewFlagSet("overlay", flag.ContinueOnError)
	registerOptsFlags(overlay, &opts)
	fs.Visit(func(f *flag.Flag) {
		if err == nil && overlay.Lookup(f.Name) != nil {
			err = overlay.Set(f.Name, f.Value.String())
		}
	})
	return opts, err
}

func pasioUsage() {
	fmt.Printf("Usage: %s [OPTIONS] -out outpath bedgraphpath\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = pasioUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("Exactly one positional argument (bedgraphpath) expected; please check flag syntax: '%s'", strings.Join(flag.Args(), " "))
	}
	if *outPath == "" {
		log.Fatalf("-out is required")
	}
	ctx := vcontext.Background()
	opts, err := resolveOpts(ctx, flag.CommandLine, flagOpts, *configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("pasio: %+v", opts)
	if err := pasio.ProcessPaths(ctx, flag.Arg(0), *outPath, opts); err != nil {
		log.Panicf("%v", err)
	}
	log.Debug.Printf("exiting")
}
