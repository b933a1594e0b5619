// Package pipeline runs the two cooperating loops of the entropy feeder:
// the downloader pulling verified random bytes from the remote service and
// the feeder injecting them into the kernel pool. They meet at the shared
// egress queue under one mutex.
package pipeline

import (
	"context"
	"crypto/rsa"
	"sync"
	"sync/atomic"
	"time"

	"epf/internal/config"
	"epf/internal/errs"
	"epf/internal/logging"
	"epf/internal/queue"
)

// Shared is the process-wide state both loops observe: the frozen config,
// the server public key, the two byte queues, the mutex, and the monotonic
// error flag.
type Shared struct {
	Cfg *config.Config
	Pub *rsa.PublicKey
	Log *logging.Log

	mu      sync.Mutex
	ingress queue.Queue // written only by the downloader
	egress  queue.Queue // any access under mu
	failed  atomic.Bool
}

// NewShared builds the shared pipeline state.
func NewShared(cfg *config.Config, pub *rsa.PublicKey, lg *logging.Log) *Shared {
	return &Shared{Cfg: cfg, Pub: pub, Log: lg}
}

// Fail sets the error flag. The flag is monotonic; there is no way to
// clear it.
func (s *Shared) Fail() { s.failed.Store(true) }

// Failed reports whether either loop has flagged a fatal condition.
func (s *Shared) Failed() bool { return s.failed.Load() }

// withEgress runs f with the mutex held. Go mutexes do not poison on
// panic, so a panic raised under the lock is flagged explicitly before
// being re-thrown; without this the surviving loop would keep feeding from
// a queue whose invariants the dying one may have broken.
func (s *Shared) withEgress(f func(egress *queue.Queue)) {
	s.mu.Lock()
	defer func() {
		if r := recover(); r != nil {
			s.failed.Store(true)
			s.Log.Error("egress queue", errs.New(errs.KindMutexPoisoned, "panic while holding the egress mutex"))
			s.mu.Unlock()
			panic(r)
		}
		s.mu.Unlock()
	}()
	f(&s.egress)
}

// sleep waits for d or until ctx is cancelled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
