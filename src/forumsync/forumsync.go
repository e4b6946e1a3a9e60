package forumsync

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"git.handmade.network/hmn/forumsync/src/config"
	"git.handmade.network/hmn/forumsync/src/logging"
	"git.handmade.network/hmn/forumsync/src/oops"
	"git.handmade.network/hmn/forumsync/src/persist"
	"git.handmade.network/hmn/forumsync/src/scraping"
	"git.handmade.network/hmn/forumsync/src/store"
	"git.handmade.network/hmn/forumsync/src/upsert"
	"git.handmade.network/hmn/forumsync/src/utils"
	"github.com/spf13/cobra"
)

var (
	configPath string
	sourceURL  string

	cfg config.ForumsyncConfig
)

var ForumsyncCommand = &cobra.Command{
	Use:   "forumsync",
	Short: "Parse forum pages and sync them into a local store",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logging.Init(cfg.LogLevel, logging.Format(cfg.LogFormat))
		return nil
	},
	SilenceUsage: true,
}

func init() {
	ForumsyncCommand.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (default ./forumsync.yaml)")
	ForumsyncCommand.PersistentFlags().StringVar(&sourceURL, "url", "", "URL the pages were fetched from (default the configured base URL)")
}

func Execute() {
	if err := ForumsyncCommand.Execute(); err != nil {
		logging.Error().Err(err).Msg("forumsync failed")
		os.Exit(1)
	}
}

func pageURL() (*url.URL, error) {
	raw := utils.OrDefault(sourceURL, cfg.BaseUrl)
	u, err := url.Parse(raw)
	if err != nil {
		return nil, oops.New(err, "bad page URL %q", raw)
	}
	return u, nil
}

func scraper() scraping.Scraper {
	return scraping.Scraper{Location: cfg.Location()}
}

func upsertOptions() upsert.Options {
	return upsert.Options{PostsPerPage: cfg.PostsPerPage}
}

func storeOptions() store.Options {
	return store.Options{BatchSize: cfg.Store.BatchSize}
}

// Opens the configured backend, migrating it to the latest schema, and loads
// a store from it. The returned close func releases the backend.
func openStore(ctx context.Context) (*store.Store, func(), error) {
	backend, err := persist.Open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	if backend == nil {
		logging.Warn().Msg("Using an in-memory store; nothing will be saved")
		return store.New(nil, storeOptions()), func() {}, nil
	}

	closeBackend := func() {
		if err := backend.Close(); err != nil {
			logging.Error().Err(err).Msg("failed to close store backend")
		}
	}

	if err := backend.Migrate(ctx, persistLatest); err != nil {
		closeBackend()
		return nil, nil, err
	}
	s, err := store.Open(ctx, backend, storeOptions())
	if err != nil {
		closeBackend()
		return nil, nil, err
	}
	return s, closeBackend, nil
}

func readFile(path string) ([]byte, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.New(err, "failed to read %s", path)
	}
	return contents, nil
}

func requireArgs(n int, what string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return fmt.Errorf("you must provide %s", what)
		}
		return nil
	}
}
