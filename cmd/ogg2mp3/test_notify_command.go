package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ogg2mp3/internal/extension"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if cfg.Notifications.NtfyTopic == "" && !cfg.Notifications.Console {
				fmt.Fprintln(out, "Notifications are disabled; set ntfy_topic or console = true")
				return nil
			}
			notifier, err := ctx.notifier(out)
			if err != nil {
				return err
			}
			reqCtx := ctx.requestContext(cmd, "test_notify")
			if err := notifier.Notify(reqCtx, extension.Metadata.Title, "Test notification"); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintln(out, "Test notification sent")
			return nil
		},
	}
}
