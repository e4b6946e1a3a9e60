package ingest

import (
	"context"
	"errors"
	"fmt"

	"git.handmade.network/hmn/forumsync/src/jobs"
	"git.handmade.network/hmn/forumsync/src/logging"
	"git.handmade.network/hmn/forumsync/src/oops"
	"git.handmade.network/hmn/forumsync/src/perf"
	"git.handmade.network/hmn/forumsync/src/scraping"
	"git.handmade.network/hmn/forumsync/src/snapshot"
	"git.handmade.network/hmn/forumsync/src/store"
	"git.handmade.network/hmn/forumsync/src/upsert"
	"git.handmade.network/hmn/forumsync/src/utils"
)

var ErrWorkerStopped = errors.New("ingest worker has stopped")

type WorkerOptions struct {
	Upsert  upsert.Options
	Scraper scraping.Scraper
	// Finished runs are submitted here if set.
	Perf *perf.PerfCollector
}

/*
A Worker owns a store. Every read and write of the store happens on the
worker's goroutine, one piece of work at a time, so callers on any goroutine
can share it.
*/
type Worker struct {
	store *store.Store
	opts  WorkerOptions
	job   *jobs.Job
	work  chan request
}

type request struct {
	ctx  context.Context
	f    func(ctx context.Context, s *store.Store) error
	done chan error
}

func StartWorker(s *store.Store, opts WorkerOptions) *Worker {
	w := &Worker{
		store: s,
		opts:  opts,
		work:  make(chan request),
	}
	w.job = jobs.Run("ingest worker", w.loop)
	return w
}

func (w *Worker) loop(job *jobs.Job) {
	for {
		select {
		case req := <-w.work:
			req.done <- w.run(req)
		case <-job.Canceled():
			job.Logger.Debug().Msg("ingest worker stopping")
			return
		}
	}
}

func (w *Worker) run(req request) (err error) {
	defer utils.RecoverPanicAsError(&err)
	if err := req.ctx.Err(); err != nil {
		return err
	}
	// Once started, work runs to completion even if the caller gives up.
	return req.f(context.WithoutCancel(req.ctx), w.store)
}

// The worker's job, for shutting it down along with the rest.
func (w *Worker) Job() *jobs.Job {
	return w.job
}

// Stop cancels the worker and waits for the work in progress to finish.
func (w *Worker) Stop() {
	w.job.Cancel()
	<-w.job.Finished()
}

/*
Do runs f on the worker's goroutine and waits for it. If ctx is done before f
starts, f never runs and ctx's error is returned. Once f has started the
caller waits for it no matter what happens to ctx.
*/
func (w *Worker) Do(ctx context.Context, f func(ctx context.Context, s *store.Store) error) error {
	req := request{ctx: ctx, f: f, done: make(chan error, 1)}
	select {
	case w.work <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-w.job.Canceled():
		return ErrWorkerStopped
	}
	return <-req.done
}

/*
Ingest reconciles snap into the store and commits it as one transaction. If
the upsert fails the transaction is rolled back and the store is left as it
was.
*/
func (w *Worker) Ingest(ctx context.Context, snap snapshot.Snapshot) (upsert.Result, error) {
	rp := perf.ExtractPerf(ctx)
	if rp == nil {
		rp = perf.MakeNewRunPerf(snapshotKind(snap), "")
		defer w.finishRun(ctx, rp)
		ctx = perf.AttachPerf(ctx, rp)
	}

	var result upsert.Result
	err := w.Do(ctx, func(ctx context.Context, s *store.Store) error {
		var err error
		result, err = apply(ctx, s, snap, w.opts.Upsert)
		return err
	})
	return result, err
}

// IngestDocument parses doc on the calling goroutine and ingests the
// snapshot. A page that fails to parse never reaches the store.
func (w *Worker) IngestDocument(ctx context.Context, doc Document) (upsert.Result, error) {
	rp := perf.MakeNewRunPerf(string(doc.Kind), doc.source())
	defer w.finishRun(ctx, rp)
	ctx = perf.AttachPerf(ctx, rp)

	snap, err := Parse(ctx, w.opts.Scraper, doc)
	if err != nil {
		return nil, err
	}
	return w.Ingest(ctx, snap)
}

func apply(ctx context.Context, s *store.Store, snap snapshot.Snapshot, opts upsert.Options) (upsert.Result, error) {
	rp := perf.ExtractPerf(ctx)

	tx := s.Begin()
	finished := false
	defer func() {
		if !finished {
			tx.Rollback()
		}
	}()

	block := rp.StartBlock("UPSERT", snapshotKind(snap))
	result, err := upsert.Upsert(tx, snap, opts)
	block.End()
	if err != nil {
		return nil, oops.New(err, "failed to upsert %s", snapshotKind(snap))
	}

	block = rp.StartBlock("COMMIT", "")
	err = tx.Commit(ctx)
	block.End()
	// A failed commit has already rolled back.
	finished = true
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (w *Worker) finishRun(ctx context.Context, rp *perf.RunPerf) {
	rp.EndRun()
	logging.ExtractLogger(ctx).Debug().
		EmbedObject(rp).
		Dur("duration", rp.Duration()).
		Msg("ingest run")
	if w.opts.Perf != nil {
		w.opts.Perf.SubmitRun(rp)
	}
}

func snapshotKind(snap snapshot.Snapshot) string {
	switch snap.(type) {
	case *snapshot.ThreadList:
		return string(scraping.KindThreadList)
	case *snapshot.PostsPage:
		return string(scraping.KindPostsPage)
	case *snapshot.PrivateMessage:
		return string(scraping.KindPrivateMessage)
	case *snapshot.PrivateMessageFolder:
		return string(scraping.KindPrivateMessageFolder)
	case *snapshot.AnnouncementList:
		return string(scraping.KindAnnouncementList)
	case *snapshot.PostIconList:
		return string(scraping.KindPostIconList)
	case *snapshot.Profile:
		return string(scraping.KindProfile)
	case *snapshot.ForumHierarchy:
		return string(scraping.KindForumHierarchy)
	case snapshot.ForumBreadcrumbs:
		return string(scraping.KindForumBreadcrumbs)
	default:
		return fmt.Sprintf("%T", snap)
	}
}
