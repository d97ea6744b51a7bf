package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ogg2mp3/internal/converter"
	"ogg2mp3/internal/library"
)

var errConversionFailed = errors.New("one or more episodes failed to convert")

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var noWait bool

	cmd := &cobra.Command{
		Use:   "convert <id>...",
		Short: "Run the \"Convert to MP3\" action on a selection of episodes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseEpisodeIDs(args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			ext, err := ctx.newExtension(out)
			if err != nil {
				return err
			}
			reqCtx := ctx.requestContext(cmd, "context_menu")

			return ctx.withLibrary(func(store *library.Store) error {
				return ctx.withConversionLock(reqCtx, !noWait, func() error {
					episodes, err := store.GetMany(reqCtx, ids)
					if err != nil {
						return err
					}
					selection := make([]converter.Episode, 0, len(episodes))
					for _, ep := range episodes {
						selection = append(selection, ep)
					}

					action := ext.OnEpisodesContextMenu(selection)
					if action == nil {
						fmt.Fprintln(out, "Convert to MP3 is not available for this selection")
						return nil
					}
					outcomes := action.Invoke(reqCtx)
					printOutcomes(out, outcomes)
					for _, outcome := range outcomes {
						if outcome.Failed() {
							return errConversionFailed
						}
					}
					return nil
				})
			})
		},
	}

	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Fail instead of waiting when another conversion holds the library lock")
	return cmd
}

func printOutcomes(out io.Writer, outcomes []converter.Outcome) {
	for _, outcome := range outcomes {
		switch outcome.Status {
		case converter.StatusConverted:
			fmt.Fprintf(out, "converted  %s -> %s\n", outcome.Title, outcome.Destination)
		case converter.StatusFailed:
			fmt.Fprintf(out, "failed     %s: %v\n", outcome.Title, outcome.Err)
		default:
			fmt.Fprintf(out, "skipped    %s\n", outcome.Title)
		}
	}
}
