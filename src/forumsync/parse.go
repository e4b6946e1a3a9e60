package forumsync

import (
	"context"
	"strings"

	"git.handmade.network/hmn/forumsync/src/ingest"
	"git.handmade.network/hmn/forumsync/src/oops"
	"git.handmade.network/hmn/forumsync/src/scraping"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func init() {
	kinds := make([]string, 0, len(scraping.Kinds()))
	for _, k := range scraping.Kinds() {
		kinds = append(kinds, string(k))
	}

	parseCommand := &cobra.Command{
		Use:   "parse <kind> <file>",
		Short: "Parse a saved page and print the snapshot as JSON",
		Long:  "Parse a saved page and print the snapshot as JSON. Kinds: " + strings.Join(kinds, ", "),
		Args:  requireArgs(2, "a page kind and a file"),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0], args[1])
			if err != nil {
				return err
			}

			snap, err := ingest.Parse(context.Background(), scraper(), doc)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return oops.New(err, "failed to encode snapshot")
			}
			cmd.OutOrStdout().Write(append(out, '\n'))
			return nil
		},
	}
	ForumsyncCommand.AddCommand(parseCommand)
}

func readDocument(rawKind, path string) (ingest.Document, error) {
	kind, err := scraping.ParseKind(rawKind)
	if err != nil {
		return ingest.Document{}, err
	}
	contents, err := readFile(path)
	if err != nil {
		return ingest.Document{}, err
	}
	u, err := pageURL()
	if err != nil {
		return ingest.Document{}, err
	}
	return ingest.Document{Kind: kind, HTML: contents, SourceURL: u}, nil
}
