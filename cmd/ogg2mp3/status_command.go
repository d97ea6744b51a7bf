package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ogg2mp3/internal/converter"
	"ogg2mp3/internal/extension"
	"ogg2mp3/internal/library"
	"ogg2mp3/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show transcoder, directory and notification health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintln(out, renderSectionHeader(extension.Metadata.Title, colorize))
			fmt.Fprintln(out, renderStatusLine("About", statusInfo, extension.Metadata.Description, colorize))
			fmt.Fprintln(out, renderStatusLine("Category", statusInfo, extension.Metadata.Category, colorize))
			fmt.Fprintln(out, renderStatusLine("Config", statusInfo, ctx.configPath, colorize))
			fmt.Fprintln(out, renderStatusLine("Context menu", statusInfo, yesNo(cfg.ContextMenuEnabled()), colorize))
			fmt.Fprintln(out)

			fmt.Fprintln(out, renderSectionHeader("Dependencies", colorize))
			statuses := preflight.CheckSystemDeps(cfg)
			found := preflight.TranscoderAvailable(statuses)
			for _, status := range statuses {
				switch {
				case status.Available:
					fmt.Fprintln(out, renderStatusLine(status.Name, statusOK, status.Path, colorize))
				case found:
					fmt.Fprintln(out, renderStatusLine(status.Name, statusWarn, status.Detail, colorize))
				default:
					fmt.Fprintln(out, renderStatusLine(status.Name, statusError, status.Detail, colorize))
				}
			}
			fmt.Fprintln(out)

			fmt.Fprintln(out, renderSectionHeader("Environment", colorize))
			results := preflight.RunAll(cmd.Context(), cfg)
			for _, result := range results {
				fmt.Fprintln(out, renderResult(result, colorize))
			}

			err = ctx.withLibrary(func(store *library.Store) error {
				episodes, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				pending := 0
				for _, ep := range episodes {
					if ep.WasDownloaded(true) && converter.Supports(ep) {
						pending++
					}
				}
				fmt.Fprintln(out, renderStatusLine("Library", statusInfo, fmt.Sprintf("%d episodes, %d ogg ready to convert", len(episodes), pending), colorize))
				return nil
			})
			if err != nil {
				return err
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d status check(s) failed", len(failed))
			}
			return nil
		},
	}
}
