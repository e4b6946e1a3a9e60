/*
Package jobs runs long-lived background goroutines that can be canceled and
waited on. The ingest worker is one; the command tree cancels every job it
started before exiting.
*/
package jobs

import (
	"context"
	"time"

	"git.handmade.network/hmn/forumsync/src/logging"
	"git.handmade.network/hmn/forumsync/src/utils"
	"github.com/rs/zerolog"
)

// A Job tracks one background task. Its context is canceled by Cancel, and
// the task calls Finish when it has fully stopped.
type Job struct {
	Name   string
	Ctx    context.Context
	Logger zerolog.Logger
	cancel func()
	done   chan struct{}
}

func New(name string) *Job {
	logger := logging.With().Str("job", name).Logger()
	ctx, cancel := context.WithCancel(context.Background())
	ctx = logging.AttachLoggerToContext(&logger, ctx)
	return &Job{
		Name:   name,
		Ctx:    ctx,
		Logger: logger,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

/*
Run starts f on its own goroutine and finishes the job when f returns. A panic
in f is logged and finishes the job too.
*/
func Run(name string, f func(job *Job)) *Job {
	job := New(name)
	go func() {
		defer job.Finish()
		err := func() (err error) {
			defer utils.RecoverPanicAsError(&err)
			f(job)
			return nil
		}()
		if err != nil {
			job.Logger.Error().Err(err).Msg("job panicked")
		}
	}()
	return job
}

// Asks the job to stop by canceling its context.
func (j *Job) Cancel() {
	j.cancel()
}

// Closed once Cancel has been called.
func (j *Job) Canceled() <-chan struct{} {
	return j.Ctx.Done()
}

// Marks the job as stopped. Called by the job itself, exactly once.
func (j *Job) Finish() *Job {
	close(j.done)
	return j
}

// Closed once the job has called Finish.
func (j *Job) Finished() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes or ctx is done.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type Jobs []*Job

/*
Cancels every job and waits up to timeout for them all to finish. Returns the
names of the jobs still running when the timeout expired.
*/
func (jobs Jobs) CancelAndWait(timeout time.Duration) []string {
	allDone := make(chan struct{})
	for _, job := range jobs {
		job.Cancel()
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	go func() {
		for _, job := range jobs {
			<-job.Finished()
		}
		close(allDone)
	}()

	select {
	case <-timer.C:
		return jobs.ListUnfinished()
	case <-allDone:
		return nil
	}
}

func (jobs Jobs) ListUnfinished() []string {
	unfinished := []string{}
	for _, job := range jobs {
		select {
		case <-job.Finished():
		default:
			unfinished = append(unfinished, job.Name)
		}
	}
	return unfinished
}
