package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"honeypot-lab/internal/api/handlers"
	"honeypot-lab/internal/domain/models"
	"honeypot-lab/internal/domain/services"
	"honeypot-lab/internal/infrastructure/store"
)

var (
	classifySession string
	classifyNoLLM   bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify <message>...",
	Short: "Run messages through the pipeline locally",
	Long: `Run one or more messages through the honeypot pipeline without a server.

Every argument is one turn. With --session the turns share an in-memory
conversation, so the scam flag and the intelligence accumulate.

Examples:
  honeypotctl classify "urgent: verify your bank account 1234567890"
  honeypotctl classify --session s1 "hello" "urgent otp needed" "pay at user@upi"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVarP(&classifySession, "session", "s", "", "conversation id shared by all turns")
	classifyCmd.Flags().BoolVar(&classifyNoLLM, "no-llm", false, "use the fixed scam reply even when llm.enabled is set")
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if classifyNoLLM {
		cfg.LLM.Enabled = false
	}

	conversations := store.NewMemoryStore(store.MemoryStoreConfig{}, log)
	svc, err := services.NewHoneypotServiceFromConfig(cfg, conversations, nil, log)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	for _, text := range args {
		result, err := svc.Engage(ctx, models.EngageRequest{
			Message:        models.NewMessage(text),
			ConversationID: classifySession,
		})
		if err != nil {
			return fmt.Errorf("engage: %w", err)
		}

		if len(args) > 1 {
			fmt.Fprintf(cmd.OutOrStdout(), "> %s\n", strings.TrimSpace(text))
		}
		if err := printJSON(cmd.OutOrStdout(), handlers.NewHoneypotResponse(result)); err != nil {
			return err
		}
		if verbose && len(result.Classification.Matched) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "matched: %s\n", strings.Join(result.Classification.Matched, ", "))
		}
	}

	return nil
}
