package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"honeypot-lab/internal/streaming"
)

var (
	watchTypes         []string
	watchConversation  string
	watchMinConfidence float64
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow honeypot events on NATS JetStream",
	Long: `Follow intelligence and engagement events published by any honeypot
instance. Events are printed one JSON document per line.

Examples:
  honeypotctl watch
  honeypotctl watch --type engagement_report
  honeypotctl watch --conversation s1 --min-confidence 0.6`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringSliceVarP(&watchTypes, "type", "t", nil, "event types to show (repeatable)")
	watchCmd.Flags().StringVar(&watchConversation, "conversation", "", "only events for this conversation id")
	watchCmd.Flags().Float64Var(&watchMinConfidence, "min-confidence", 0, "minimum confidence of the triggering turn")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	publisher, err := streaming.NewNATSPublisher(ctx, cfg.NATS, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	events, err := publisher.Subscribe(ctx, watchSubscription())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "watching %s, press Ctrl+C to stop\n", cfg.NATS.URL)
	return printEvents(ctx, cmd, events)
}

func watchSubscription() *streaming.Subscription {
	sub := &streaming.Subscription{
		ConversationID: watchConversation,
		MinConfidence:  watchMinConfidence,
	}
	for _, t := range watchTypes {
		if t = strings.TrimSpace(t); t != "" {
			sub.Types = append(sub.Types, streaming.EventType(t))
		}
	}
	return sub
}

func printEvents(ctx context.Context, cmd *cobra.Command, events <-chan *streaming.HoneypotEvent) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := enc.Encode(event); err != nil {
				return err
			}
		}
	}
}
