package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"honeypot-lab/internal/api/middleware"
)

var (
	sendURL     string
	sendAPIKey  string
	sendSession string
	sendTimeout time.Duration
)

var sendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send a message to a running honeypot",
	Long: `Send a message to a running honeypot server and print the response.

The API key defaults to auth.api_key from the configuration.

Examples:
  honeypotctl send "your account is blocked, verify now"
  honeypotctl send --url http://honeypot:3000/api/honeypot --session abc "share otp"`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVarP(&sendURL, "url", "u", "http://localhost:3000/honeypot", "honeypot endpoint")
	sendCmd.Flags().StringVarP(&sendAPIKey, "api-key", "k", "", "API key (defaults to auth.api_key)")
	sendCmd.Flags().StringVarP(&sendSession, "session", "s", "", "conversation id")
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", 15*time.Second, "request timeout")
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	payload := map[string]any{"message": args[0]}
	if sendSession != "" {
		payload["sessionId"] = sendSession
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	apiKey := sendAPIKey
	if apiKey == "" {
		apiKey = cfg.Auth.APIKey
	}
	header := cfg.Auth.Header
	if header == "" {
		header = middleware.DefaultAPIKeyHeader
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(header, apiKey)

	log.Debug().Str("url", sendURL).Msg("sending message")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var pretty any
	if err := json.Unmarshal(data, &pretty); err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else if err := printJSON(cmd.OutOrStdout(), pretty); err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}
