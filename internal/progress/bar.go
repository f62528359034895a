package progress

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/cheggaaa/pb/v3"
)

// Bar is a Monitor rendering a terminal progress bar.
// Cancel may be called from any goroutine, e.g. a signal handler.
type Bar struct {
	mu        sync.Mutex
	bar       *pb.ProgressBar
	started   bool
	cancelled atomic.Bool
}

// NewBar returns a bar writing to w. The bar is drawn from the first
// SetTaskSize call on.
func NewBar(w io.Writer) *Bar {
	bar := pb.New64(0)
	bar.SetTemplate(pb.Simple)
	bar.SetWriter(w)
	return &Bar{bar: bar}
}

func (b *Bar) SetTaskSize(n int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bar.SetTotal(n)
	if !b.started {
		b.bar.Start()
		b.started = true
	}
}

func (b *Bar) SetTaskProgress(k int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bar.SetCurrent(k)
}

func (b *Bar) IsCancelled() bool {
	return b.cancelled.Load()
}

func (b *Bar) Finished() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		b.bar.Finish()
		b.started = false
	}
}

// Cancel asks the running operation to stop at its next checkpoint.
func (b *Bar) Cancel() {
	b.cancelled.Store(true)
}
