/*
Package ingest glues the stages together: documents are parsed into
snapshots, and snapshots are reconciled into a store and committed. Parsing is
pure and runs anywhere; everything that touches the store runs on a Worker.
*/
package ingest

import (
	"bytes"
	"context"
	"net/url"

	"git.handmade.network/hmn/forumsync/src/oops"
	"git.handmade.network/hmn/forumsync/src/perf"
	"git.handmade.network/hmn/forumsync/src/scraping"
	"git.handmade.network/hmn/forumsync/src/snapshot"
	"golang.org/x/sync/errgroup"
)

// A Document is one fetched page waiting to be parsed.
type Document struct {
	Kind      scraping.Kind
	HTML      []byte
	SourceURL *url.URL
}

func (d Document) source() string {
	if d.SourceURL == nil {
		return ""
	}
	return d.SourceURL.String()
}

// Parse scrapes a single document. A page that does not look the way its
// kind should comes back as a *scraping.ScrapingError.
func Parse(ctx context.Context, s scraping.Scraper, doc Document) (snapshot.Snapshot, error) {
	defer perf.ExtractPerf(ctx).StartBlock("PARSE", string(doc.Kind)).End()

	root, err := scraping.ParseHTML(bytes.NewReader(doc.HTML))
	if err != nil {
		return nil, err
	}
	snap, err := s.Scrape(doc.Kind, root, doc.SourceURL)
	if err != nil {
		return nil, oops.New(err, "failed to scrape %s page %s", doc.Kind, doc.source())
	}
	return snap, nil
}

// ParseAll parses with the default scraper. See ParseAllWith.
func ParseAll(ctx context.Context, docs []Document, parallelism int) ([]snapshot.Snapshot, error) {
	return ParseAllWith(ctx, scraping.Default, docs, parallelism)
}

/*
ParseAllWith parses documents concurrently, at most parallelism at once (no
limit if parallelism <= 0). Snapshots are returned in document order. The
first failure cancels the parses that have not started and is returned.
*/
func ParseAllWith(ctx context.Context, s scraping.Scraper, docs []Document, parallelism int) ([]snapshot.Snapshot, error) {
	g, gctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	// Runs are not safe to share between goroutines.
	gctx = perf.AttachPerf(gctx, nil)

	snaps := make([]snapshot.Snapshot, len(docs))
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			snap, err := Parse(gctx, s, doc)
			if err != nil {
				return err
			}
			snaps[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snaps, nil
}
