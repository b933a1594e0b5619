// Package logging routes every pipeline event through one logger so each
// typed error is printed exactly once, in one line, at the point it turns
// into a retry or a shutdown. Success paths stay silent apart from the
// startup banner.
package logging

import (
	"io"
	"log"
	"time"
)

func ts() string { return time.Now().Format("15:04:05.000") }

// Log wraps a standard logger; the standard logger serializes writers, so
// both loops may share one Log.
type Log struct {
	l *log.Logger
}

// New builds a Log writing to out.
func New(out io.Writer) *Log {
	return &Log{l: log.New(out, "", 0)}
}

// Banner prints the startup line naming the pool size and initial entropy.
func (lg *Log) Banner(poolBits, entropyBits int) {
	lg.l.Printf("🎬 feeding the /dev/random kernel entropy pool of size %d bits, initial entropy: %d bits",
		poolBits, entropyBits)
}

// Error logs one line for a failure, naming the condition.
func (lg *Log) Error(context string, err error) {
	lg.l.Printf("%s ✗ %s: %v", ts(), context, err)
}

// Shutdown logs the termination line.
func (lg *Log) Shutdown(reason string) {
	lg.l.Printf("⏻  shutting down: %s", reason)
}
