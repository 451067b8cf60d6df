package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"research-agent-be/internal/config"
	"research-agent-be/pkg/events"
	pktNats "research-agent-be/pkg/nats"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow agent events on NATS",
	}

	tail := &cobra.Command{
		Use:   "tail",
		Short: "Print agent events as they are published",
		RunE:  runEventsTail,
	}
	tail.Flags().String("subject", pktNats.SubjectPrefix+">", "Subject filter")
	tail.Flags().String("durable", "", "Durable consumer name (default: ephemeral, new events only)")

	cmd.AddCommand(tail)
	RootCmd.AddCommand(cmd)
}

func runEventsTail(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.App.NatsURL == "" {
		return fmt.Errorf("NATS_URL is not set")
	}

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}
	defer sub.Close()

	subject, _ := cmd.Flags().GetString("subject")
	durable, _ := cmd.Flags().GetString("durable")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	dimColor.Fprintf(out, "Listening on %s (Ctrl+C to stop)\n", subject)

	return sub.Subscribe(ctx, subject, durable, func(_ context.Context, e events.Event) error {
		if isJSON() {
			return writeJSON(out, map[string]interface{}{
				"type":        e.EventType(),
				"occurred_at": e.Timestamp(),
				"data":        e.Payload(),
			})
		}
		okColor.Fprintf(out, "%s ", e.EventType())
		dimColor.Fprintf(out, "%s ", e.Timestamp().Format(time.RFC3339))
		fmt.Fprintf(out, "%v\n", e.Payload())
		return nil
	})
}
