package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ogg2mp3/internal/converter"
	"ogg2mp3/internal/library"
)

// mimeByExtension fills in --mime when the caller leaves it out.
var mimeByExtension = map[string]string{
	".ogg":  converter.MimeTypeOGG,
	".oga":  converter.MimeTypeOGG,
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".opus": "audio/opus",
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var title string
	var mimeType string
	var downloaded bool

	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Register an episode file in the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			if info, err := os.Stat(absPath); err == nil && info.IsDir() {
				return fmt.Errorf("%s is a directory", absPath)
			}

			mime := strings.TrimSpace(mimeType)
			if mime == "" {
				ext := strings.ToLower(filepath.Ext(absPath))
				detected, ok := mimeByExtension[ext]
				if !ok {
					return fmt.Errorf("cannot infer media type for extension %q (pass --mime)", ext)
				}
				mime = detected
			}

			return ctx.withLibrary(func(store *library.Store) error {
				episode, err := store.Add(cmd.Context(), library.AddParams{
					Title:      title,
					MimeType:   mime,
					Filename:   absPath,
					Downloaded: downloaded,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added episode #%d (%s, %s)\n", episode.ID, episode.Title(), episode.MimeType())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Episode title (defaults to the file name)")
	cmd.Flags().StringVar(&mimeType, "mime", "", "Media type (inferred from the extension when omitted)")
	cmd.Flags().BoolVar(&downloaded, "downloaded", false, "Record the episode as already downloaded")
	return cmd
}

type episodeView struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	MimeType    string    `json:"mime_type"`
	State       string    `json:"state"`
	Filename    string    `json:"filename,omitempty"`
	FilePresent bool      `json:"file_present"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List library episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(func(store *library.Store) error {
				episodes, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				views := make([]episodeView, 0, len(episodes))
				for _, ep := range episodes {
					views = append(views, episodeView{
						ID:          ep.ID,
						Title:       ep.Title(),
						MimeType:    ep.MimeType(),
						State:       string(ep.State),
						Filename:    ep.Filename(),
						FilePresent: ep.WasDownloaded(true),
						UpdatedAt:   ep.UpdatedAt,
					})
				}
				if jsonOutput {
					return writeJSON(cmd, views)
				}

				out := cmd.OutOrStdout()
				if len(views) == 0 {
					fmt.Fprintln(out, "Library is empty")
					return nil
				}
				rows := make([][]string, 0, len(views))
				for _, v := range views {
					rows = append(rows, []string{
						fmt.Sprintf("%d", v.ID),
						v.Title,
						v.MimeType,
						v.State,
						yesNo(v.FilePresent),
						v.Filename,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Title", "Type", "State", "On disk", "File"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
					shouldColorize(out),
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newDownloadedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "downloaded <id>",
		Short: "Mark an episode downloaded and run the post-download conversion",
		Args:  cobra.ExactArgs(1),
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
			reqCtx := ctx.requestContext(cmd, "episode_downloaded")

			return ctx.withLibrary(func(store *library.Store) error {
				return ctx.withConversionLock(reqCtx, true, func() error {
					episode, err := store.MarkDownloaded(reqCtx, ids[0])
					if err != nil {
						return err
					}
					outcome := ext.OnEpisodeDownloaded(reqCtx, episode)
					printOutcomes(out, []converter.Outcome{outcome})
					if outcome.Failed() {
						return errConversionFailed
					}
					return nil
				})
			})
		},
	}
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Forget episodes without touching their files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseEpisodeIDs(args)
			if err != nil {
				return err
			}
			return ctx.withLibrary(func(store *library.Store) error {
				var errs []error
				for _, id := range ids {
					if err := store.Remove(cmd.Context(), id); err != nil {
						errs = append(errs, err)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed episode #%d\n", id)
				}
				return errors.Join(errs...)
			})
		},
	}
}
