/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/campdir/apiserver/config"
	"github.com/campdir/apiserver/internal/mq"
	"github.com/campdir/apiserver/internal/server"
	"github.com/spf13/cobra"
)

// reconcileCmd runs the offline sweep for media-consistency events.
// Lifecycle operations publish an event whenever the media store and the
// database can diverge (an upload whose insert failed, a destroy that
// failed mid-cascade); this worker consumes those events and deletes the
// named assets so nothing leaks permanently.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Consume media-consistency events and sweep orphaned assets",
	Long: `Consumes media.orphaned events from the configured broker and deletes
the reported assets from the media store. Usage:

	campdir reconcile
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		mediaStore, err := server.NewMediaStore(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("init media store: %w", err)
		}

		queue, err := server.NewEventQueue(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("init event queue: %w", err)
		}
		if queue == nil {
			return errors.New("reconcile requires MQ_BACKEND to be set")
		}
		defer func() {
			_ = queue.Close()
		}()

		slog.Info("reconcile worker started", "channel", mq.ChannelMediaOrphaned)
		return queue.Subscribe(cmd.Context(), mq.ChannelMediaOrphaned, func(ctx context.Context, msg mq.Message) error {
			var event mq.MediaOrphanedEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				slog.Warn("dropping malformed media.orphaned event", "message_id", msg.ID, "error", err)
				return nil
			}
			if event.PublicID == "" {
				return nil
			}
			if err := mediaStore.Destroy(ctx, event.PublicID); err != nil {
				slog.Warn("orphan sweep failed, will retry", "public_id", event.PublicID, "error", err)
				return err
			}
			slog.Info("orphaned asset removed", "public_id", event.PublicID, "reason", event.Reason)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
