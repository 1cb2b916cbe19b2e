package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobdigest/internal/config"
	"github.com/amishk599/jobdigest/internal/notifier"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification",
	Long:  "Sends one test message to every chat the enabled sources publish to.",
	RunE:  runNotifyTest,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	rt := openRuntime(logger, "", false)
	defer rt.Close()

	ctx, stop := signalContext()
	defer stop()

	sent := make(map[string]bool)
	failed := false
	for _, s := range rt.Sources {
		chat := rt.Config.ChatIDFor(s)
		if rt.Config.Notification.Type == config.NotifyLog {
			chat = s.Name
		}
		if sent[chat] {
			continue
		}
		sent[chat] = true

		ch, _ := rt.Channel(s.Name)
		h, err := notifier.SendTestMessage(ctx, ch)
		if err != nil {
			logger.Error("test notification failed", "source", s.Name, "error", err)
			failed = true
			continue
		}
		logger.Info("test notification sent", "source", s.Name, "message_id", h.ID)
	}

	if failed {
		os.Exit(1)
	}
	return nil
}
