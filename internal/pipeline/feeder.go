package pipeline

import (
	"context"

	"epf/internal/queue"
)

// EntropySink is the kernel interface the feeder drives. The concrete
// implementation is kernel.Sink; tests substitute a fake.
type EntropySink interface {
	PoolBytes() int
	EntropyBits() (int, error)
	Inject(entropyBits int, data []byte) error
	Close() error
}

// Feeder drains the egress queue into the kernel entropy pool whenever the
// pool sinks below half full. Every kernel failure is fatal to the whole
// pipeline.
type Feeder struct {
	shared *Shared
	sink   EntropySink
}

// NewFeeder builds the feeder loop over an already-opened sink. The feeder
// owns the sink from here on and closes it when the loop exits.
func NewFeeder(s *Shared, sink EntropySink) *Feeder {
	return &Feeder{shared: s, sink: sink}
}

// Run executes the feed loop until the error flag is set or ctx is
// cancelled.
func (f *Feeder) Run(ctx context.Context) {
	defer f.sink.Close()
	for !f.shared.Failed() && ctx.Err() == nil {
		if err := f.step(); err != nil {
			f.shared.Log.Error("kernel entropy sink", err)
			f.shared.Fail()
			return
		}
		sleep(ctx, f.shared.Cfg.FeederPeriod)
	}
}

// step is one heartbeat: under the mutex, query the pool and inject from
// egress if the pool is below half full.
func (f *Feeder) step() error {
	var fatal error
	f.shared.withEgress(func(egress *queue.Queue) {
		bits, err := f.sink.EntropyBits()
		if err != nil {
			fatal = err
			return
		}
		poolBytes := f.sink.PoolBytes()
		if bits < poolBytes*8/2 && egress.Len() > 0 {
			want := poolBytes - bits/8
			if want > egress.Len() {
				want = egress.Len()
			}
			data := egress.PopFront(want)
			after := bits + want*8
			if err := f.sink.Inject(after, data); err != nil {
				fatal = err
				return
			}
		}
	})
	return fatal
}
