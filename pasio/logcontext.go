package pasio

import (
	"fmt"

	"github.com/grailbio/base/log"
)

// LogContext carries the contig, round and window a reducer is working on,
// so that progress messages from nested reducers can be attributed.  The zero
// value has no context.  It is passed by value; WithRound and WithWindow
// return modified copies.
type LogContext struct {
	Contig string
	// Round is 1-based; zero means no round is in progress.
	Round int

	hasWindow   bool
	windowStart int
	windowStop  int
}

// WithRound returns a copy of lc attributed to the given round.
func (lc LogContext) WithRound(round int) LogContext {
	lc.Round = round
	return lc
}

// WithWindow returns a copy of lc attributed to the window [start, stop).
func (lc LogContext) WithWindow(start, stop int) LogContext {
	lc.hasWindow = true
	lc.windowStart = start
	lc.windowStop = stop
	return lc
}

func (lc LogContext) prefix() string {
	p := ""
	if lc.Contig != "" {
		p += lc.Contig + ": "
	}
	if lc.Round > 0 {
		p += fmt.Sprintf("Round %d: ", lc.Round)
	}
	if lc.hasWindow {
		p += fmt.Sprintf("Window [%d, %d): ", lc.windowStart, lc.windowStop)
	}
	return p
}

// String implements fmt.Stringer.
func (lc LogContext) String() string {
	return lc.prefix()
}

// Printf logs at info level, prefixed with the context.
func (lc LogContext) Printf(format string, args ...interface{}) {
	log.Printf(lc.prefix()+format, args...)
}

// Debugf logs at debug level, prefixed with the context.
func (lc LogContext) Debugf(format string, args ...interface{}) {
	if log.At(log.Debug) {
		log.Debug.Printf(lc.prefix()+format, args...)
	}
}
