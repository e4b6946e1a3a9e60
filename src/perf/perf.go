package perf

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RunPerf is the timing record of one ingest run.
type RunPerf struct {
	Kind   string
	Source string
	Start  time.Time
	End    time.Time
	Blocks []PerfBlock
}

func MakeNewRunPerf(kind string, source string) *RunPerf {
	return &RunPerf{
		Start:  time.Now(),
		Kind:   kind,
		Source: source,
	}
}

func (rp *RunPerf) EndRun() {
	for rp.EndBlock() {
	}
	rp.End = time.Now()
}

func (rp *RunPerf) Checkpoint(category, description string) {
	now := time.Now()
	checkpoint := PerfBlock{
		Start:       now,
		End:         now,
		Category:    category,
		Description: description,
	}
	rp.Blocks = append(rp.Blocks, checkpoint)
}

// StartBlock opens a block. Blocks nest; EndBlock closes the innermost one.
func (rp *RunPerf) StartBlock(category, description string) *BlockHandle {
	if rp == nil {
		return nil
	}
	now := time.Now()
	checkpoint := PerfBlock{
		Start:       now,
		End:         time.Time{},
		Category:    category,
		Description: description,
	}
	rp.Blocks = append(rp.Blocks, checkpoint)
	return &BlockHandle{rp: rp, index: len(rp.Blocks) - 1}
}

func (rp *RunPerf) EndBlock() bool {
	for i := len(rp.Blocks) - 1; i >= 0; i -= 1 {
		if rp.Blocks[i].End.Equal(time.Time{}) {
			rp.Blocks[i].End = time.Now()
			return true
		}
	}
	return false
}

func (rp *RunPerf) MsFromStart(block *PerfBlock) float64 {
	return float64(block.Start.Sub(rp.Start).Nanoseconds()) / 1000 / 1000
}

func (rp *RunPerf) Duration() time.Duration {
	return rp.End.Sub(rp.Start)
}

func (rp *RunPerf) MarshalZerologObject(e *zerolog.Event) {
	e.Str("kind", rp.Kind)
	if rp.Source != "" {
		e.Str("source", rp.Source)
	}
	e.Dur("total", rp.Duration())
	for i := range rp.Blocks {
		b := &rp.Blocks[i]
		e.Float64(b.Category+" "+b.Description, b.DurationMs())
	}
}

// A handle to one open block, for code that cannot rely on nesting.
type BlockHandle struct {
	rp    *RunPerf
	index int
}

func (h *BlockHandle) End() {
	if h == nil {
		return
	}
	b := &h.rp.Blocks[h.index]
	if b.End.IsZero() {
		b.End = time.Now()
	}
}

type PerfBlock struct {
	Start       time.Time
	End         time.Time
	Category    string
	Description string
}

func (pb *PerfBlock) Duration() time.Duration {
	return pb.End.Sub(pb.Start)
}

func (pb *PerfBlock) DurationMs() float64 {
	return float64(pb.Duration().Nanoseconds()) / 1000 / 1000
}

type perfContextKey struct{}

func AttachPerf(ctx context.Context, rp *RunPerf) context.Context {
	return context.WithValue(ctx, perfContextKey{}, rp)
}

// ExtractPerf returns the run attached to ctx, or nil. A nil run ignores
// every block started on it.
func ExtractPerf(ctx context.Context) *RunPerf {
	rp, _ := ctx.Value(perfContextKey{}).(*RunPerf)
	return rp
}

type PerfStorage struct {
	AllRuns []RunPerf
}

type PerfCollector struct {
	In          chan<- RunPerf
	Done        <-chan struct{}
	RequestCopy chan<- (chan<- PerfStorage)
}

func RunPerfCollector(ctx context.Context) *PerfCollector {
	in := make(chan RunPerf)
	done := make(chan struct{})
	requestCopy := make(chan (chan<- PerfStorage))

	var storage PerfStorage

	go func() {
		defer close(done)

		for {
			select {
			case perf := <-in:
				storage.AllRuns = append(storage.AllRuns, perf)
			case resultChan := <-requestCopy:
				resultChan <- PerfStorage{AllRuns: append([]RunPerf(nil), storage.AllRuns...)}
			case <-ctx.Done():
				return
			}
		}
	}()

	perfCollector := PerfCollector{
		In:          in,
		Done:        done,
		RequestCopy: requestCopy,
	}
	return &perfCollector
}

// SubmitRun records a finished run. It does nothing once the collector has
// stopped.
func (perfCollector *PerfCollector) SubmitRun(run *RunPerf) {
	select {
	case perfCollector.In <- *run:
	case <-perfCollector.Done:
	}
}

func (perfCollector *PerfCollector) GetPerfCopy() *PerfStorage {
	resultChan := make(chan PerfStorage)
	select {
	case perfCollector.RequestCopy <- resultChan:
	case <-perfCollector.Done:
		return &PerfStorage{}
	}
	perfStorageCopy := <-resultChan
	return &perfStorageCopy
}
