package forumsync

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"git.handmade.network/hmn/forumsync/src/ingest"
	"git.handmade.network/hmn/forumsync/src/jobs"
	"git.handmade.network/hmn/forumsync/src/logging"
	"git.handmade.network/hmn/forumsync/src/perf"
	"github.com/spf13/cobra"
)

func init() {
	var parallelism int

	ingestCommand := &cobra.Command{
		Use:   "ingest <kind> <file>...",
		Short: "Parse saved pages of one kind and sync them into the store",
		Args:  requireArgs(2, "a page kind and at least one file"),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer logging.LogPanics(nil)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			ctx = logging.AttachLoggerToContext(logging.GlobalLogger(), ctx)

			var docs []ingest.Document
			for _, path := range args[1:] {
				doc, err := readDocument(args[0], path)
				if err != nil {
					return err
				}
				docs = append(docs, doc)
			}

			// Nothing is stored unless every page parses.
			snaps, err := ingest.ParseAllWith(ctx, scraper(), docs, parallelism)
			if err != nil {
				return err
			}

			s, closeStore, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			perfCtx, cancelPerf := context.WithCancel(context.Background())
			defer cancelPerf()
			collector := perf.RunPerfCollector(perfCtx)

			worker := ingest.StartWorker(s, ingest.WorkerOptions{
				Upsert:  upsertOptions(),
				Scraper: scraper(),
				Perf:    collector,
			})
			backgroundJobs := jobs.Jobs{worker.Job()}
			defer func() {
				if unfinished := backgroundJobs.CancelAndWait(10 * time.Second); len(unfinished) > 0 {
					logging.Warn().Strs("unfinished", unfinished).Msg("Background jobs did not finish by the deadline")
				}
			}()

			touched := 0
			for i, snap := range snaps {
				result, err := worker.Ingest(ctx, snap)
				if err != nil {
					return fmt.Errorf("%s: %w", args[i+1], err)
				}
				touched += len(result.Touched())
				logging.Info().Str("file", args[i+1]).Int("touched", len(result.Touched())).Msg("Ingested page")
			}

			var total time.Duration
			for _, run := range collector.GetPerfCopy().AllRuns {
				total += run.Duration()
			}
			logging.Info().
				Int("pages", len(snaps)).
				Int("touched", touched).
				Dur("time", total).
				Msg("Done")
			return nil
		},
	}
	ingestCommand.Flags().IntVar(&parallelism, "parallel", runtime.NumCPU(), "How many pages to parse at once")
	ForumsyncCommand.AddCommand(ingestCommand)
}
