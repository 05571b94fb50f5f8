package ai

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"honeypot-lab/internal/domain/models"
	"honeypot-lab/pkg/logger"
)

const (
	DefaultPingReply     = "Hello, how can I help you?"
	DefaultScamReply     = "I am interested. Please share the bank or UPI details to proceed."
	DefaultHistoryWindow = 6
	DefaultReplyTimeout  = 8 * time.Second
)

// DefaultNeutralReplies are used for turns that do not look like a scam
var DefaultNeutralReplies = []string{
	"Okay, tell me more.",
	"Alright, continue please.",
	"Thanks, go on.",
}

// ErrEmptyReply is returned when a generator produced only whitespace
var ErrEmptyReply = errors.New("reply generator returned an empty reply")

// Picker chooses an index in [0, n)
type Picker interface {
	Pick(n int) int
}

// PickerFunc adapts a function to Picker
type PickerFunc func(n int) int

// Pick calls f(n)
func (f PickerFunc) Pick(n int) int { return f(n) }

// RandomPicker picks uniformly at random
type RandomPicker struct{}

// Pick returns a pseudo-random index in [0, n)
func (RandomPicker) Pick(n int) int { return rand.Intn(n) }

// ReplyGenerator produces a reply from the most recent conversation turns
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, history []string) (string, error)
}

// ReplySelectorConfig configures the reply selector
type ReplySelectorConfig struct {
	NeutralReplies []string
	ScamReply      string
	PingReply      string
	Timeout        time.Duration
	HistoryWindow  int
}

// ReplySelector picks the agent reply for a classified turn
type ReplySelector struct {
	neutral       []string
	scamReply     string
	pingReply     string
	timeout       time.Duration
	historyWindow int
	picker        Picker
	generator     ReplyGenerator
	logger        *logger.Logger
}

// NewReplySelector creates a reply selector. generator may be nil, in which
// case scam turns always get the fixed scam reply.
func NewReplySelector(cfg ReplySelectorConfig, picker Picker, generator ReplyGenerator, log *logger.Logger) *ReplySelector {
	if len(cfg.NeutralReplies) == 0 {
		cfg.NeutralReplies = DefaultNeutralReplies
	}
	if cfg.ScamReply == "" {
		cfg.ScamReply = DefaultScamReply
	}
	if cfg.PingReply == "" {
		cfg.PingReply = DefaultPingReply
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultReplyTimeout
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	if picker == nil {
		picker = RandomPicker{}
	}

	return &ReplySelector{
		neutral:       append([]string{}, cfg.NeutralReplies...),
		scamReply:     cfg.ScamReply,
		pingReply:     cfg.PingReply,
		timeout:       cfg.Timeout,
		historyWindow: cfg.HistoryWindow,
		picker:        picker,
		generator:     generator,
		logger:        log.WithComponent("reply-selector"),
	}
}

// PingReply returns the reply sent for empty messages
func (s *ReplySelector) PingReply() string {
	return s.pingReply
}

// ScamReply returns the fixed reply asking for payment details
func (s *ReplySelector) ScamReply() string {
	return s.scamReply
}

// Select returns the reply for a turn. It never fails: any generator problem
// degrades to the fixed scam reply.
func (s *ReplySelector) Select(ctx context.Context, isScam bool, history []string) (string, models.ReplySource) {
	if !isScam {
		return s.neutralReply(), models.ReplySourceNeutral
	}

	if s.generator == nil {
		return s.scamReply, models.ReplySourceScam
	}

	reply, err := s.generate(ctx, lastN(history, s.historyWindow))
	if err != nil {
		s.logger.Warn().Err(err).Int("history", len(history)).Msg("reply generation failed, using fallback")
		return s.scamReply, models.ReplySourceFallback
	}

	return reply, models.ReplySourceLLM
}

func (s *ReplySelector) neutralReply() string {
	idx := s.picker.Pick(len(s.neutral))
	if idx < 0 || idx >= len(s.neutral) {
		idx = 0
	}
	return s.neutral[idx]
}

type generated struct {
	reply string
	err   error
}

// generate runs the generator under the configured timeout. The call runs in
// its own goroutine so a generator that ignores ctx still cannot hold the
// request past the deadline.
func (s *ReplySelector) generate(ctx context.Context, history []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan generated, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- generated{err: fmt.Errorf("reply generator panicked: %v", p)}
			}
		}()
		reply, err := s.generator.GenerateReply(ctx, history)
		done <- generated{reply: reply, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("reply generation aborted: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		reply := strings.TrimSpace(res.reply)
		if reply == "" {
			return "", ErrEmptyReply
		}
		return reply, nil
	}
}

func lastN(items []string, n int) []string {
	if len(items) <= n {
		return append([]string{}, items...)
	}
	return append([]string{}, items[len(items)-n:]...)
}
