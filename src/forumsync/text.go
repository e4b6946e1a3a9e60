package forumsync

import (
	"fmt"
	"strings"

	"git.handmade.network/hmn/forumsync/src/bbcode"
	"git.handmade.network/hmn/forumsync/src/logging"
	"git.handmade.network/hmn/forumsync/src/oops"
	"git.handmade.network/hmn/forumsync/src/scraping"
	"github.com/spf13/cobra"
)

func init() {
	var highlight bool

	mentionsCommand := &cobra.Command{
		Use:   "mentions <file> <username>",
		Short: "Mark mentions of a user in a saved post body",
		Args:  requireArgs(2, "a file and a username"),
		RunE: func(cmd *cobra.Command, args []string) error {
			contents, err := readFile(args[0])
			if err != nil {
				return err
			}
			root, err := scraping.ParseFragment(string(contents))
			if err != nil {
				return oops.New(err, "failed to parse %s", args[0])
			}

			count := scraping.HighlightMentions(root, args[1], highlight)
			rendered, err := scraping.RenderHTML(root)
			if err != nil {
				return oops.New(err, "failed to render post body")
			}

			logging.Info().Int("mentions", count).Str("username", args[1]).Msg("Marked mentions")
			fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return nil
		},
	}
	mentionsCommand.Flags().BoolVar(&highlight, "highlight", false, "Also add the highlight class")
	ForumsyncCommand.AddCommand(mentionsCommand)

	bbcodeCommand := &cobra.Command{
		Use:   "bbcode <text>...",
		Short: "Show the composer's view of some BBCode",
		Long:  "Show whether the end of the text is inside a [code] block, which tag is still open there, and the preview HTML.",
		Args:  requireArgs(1, "some text"),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "in code block: %v\n", bbcode.IsInCodeBlock(text))
			if tag, ok := bbcode.CurrentlyOpenTag(text); ok {
				fmt.Fprintf(out, "open tag: %s\n", tag)
			} else {
				fmt.Fprintln(out, "open tag: none")
			}
			fmt.Fprintln(out, bbcode.RenderPreview(text))
			return nil
		},
	}
	ForumsyncCommand.AddCommand(bbcodeCommand)
}
