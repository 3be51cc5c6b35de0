package main

import (
	"context"
	"flag"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/autosome-ru/papolarity/pasio"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func parse(t *testing.T, args ...string) (*flag.FlagSet, pasio.Opts) {
	opts := pasio.DefaultOpts
	fs := flag.NewFlagSet("pasio", flag.ContinueOnError)
	registerOptsFlags(fs, &opts)
	assert.NoError(t, fs.Parse(args))
	return fs, opts
}

func TestResolveOptsFlagsOnly(t *testing.T) {
	fs, fromFlags := parse(t, "-alpha", "2.5", "-algorithm", "exact", "-split-at-gaps", "-bed", "a.bed", "-bed-one-based")
	opts, err := resolveOpts(context.Background(), fs, fromFlags, "")
	assert.NoError(t, err)
	expect.EQ(t, opts.Alpha, 2.5)
	expect.EQ(t, opts.Beta, pasio.DefaultOpts.Beta)
	expect.EQ(t, opts.Algorithm, pasio.AlgorithmExact)
	expect.True(t, opts.SplitAtGaps)
	expect.EQ(t, opts.BedPath, "a.bed")
	expect.True(t, opts.BedOneBased)
	expect.False(t, opts.InvertBed)
}

func TestResolveOptsConfig(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	configPath := filepath.Join(tmpdir, "pasio.yaml")
	config := `alpha: 3
beta: 2
algorithm: slidingwindow
window_size: 100
window_shift: 40
no_split_constant: true
`
	assert.NoError(t, ioutil.WriteFile(configPath, []byte(config), 0644))

	fs, fromFlags := parse(t, "-beta", "7", "-window-shift", "50")
	opts, err := resolveOpts(context.Background(), fs, fromFlags, configPath)
	assert.NoError(t, err)
	expect.EQ(t, opts.Alpha, 3.0)
	expect.EQ(t, opts.Beta, 7.0)
	expect.EQ(t, opts.Algorithm, pasio.AlgorithmSlidingWindow)
	expect.EQ(t, opts.WindowSize, 100)
	expect.EQ(t, opts.WindowShift, 50)
	expect.True(t, opts.NoSplitConstant)
	expect.EQ(t, opts.Format, pasio.DefaultOpts.Format)
	assert.NoError(t, opts.Validate())
}

func TestResolveOptsBadConfig(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	configPath := filepath.Join(tmpdir, "pasio.yaml")
	assert.NoError(t, ioutil.WriteFile(configPath, []byte("alpah: 3\n"), 0644))
	fs, fromFlags := parse(t)
	_, err := resolveOpts(context.Background(), fs, fromFlags, configPath)
	expect.NotNil(t, err)
}
