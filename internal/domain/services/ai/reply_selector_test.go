package ai

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeypot-lab/internal/domain/models"
	"honeypot-lab/pkg/logger"
)

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	delay   time.Duration
	panics  bool
	history []string
	calls   int
}

func (g *fakeGenerator) GenerateReply(ctx context.Context, history []string) (string, error) {
	g.mu.Lock()
	g.calls++
	g.history = append([]string{}, history...)
	g.mu.Unlock()

	if g.panics {
		panic("boom")
	}
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.reply, g.err
}

func newTestSelector(picker Picker, gen ReplyGenerator, timeout time.Duration) *ReplySelector {
	return NewReplySelector(ReplySelectorConfig{Timeout: timeout}, picker, gen, logger.NewNop())
}

func TestReplySelector_NeutralUsesPicker(t *testing.T) {
	for i, want := range DefaultNeutralReplies {
		idx := i
		s := newTestSelector(PickerFunc(func(n int) int {
			require.Equal(t, len(DefaultNeutralReplies), n)
			return idx
		}), nil, 0)

		reply, source := s.Select(context.Background(), false, []string{"hi"})
		assert.Equal(t, want, reply)
		assert.Equal(t, models.ReplySourceNeutral, source)
	}
}

func TestReplySelector_NeutralOutOfRangePick(t *testing.T) {
	s := newTestSelector(PickerFunc(func(int) int { return 99 }), nil, 0)

	reply, _ := s.Select(context.Background(), false, nil)
	assert.Equal(t, DefaultNeutralReplies[0], reply)
}

func TestReplySelector_NeutralIgnoresGenerator(t *testing.T) {
	gen := &fakeGenerator{reply: "llm"}
	s := newTestSelector(PickerFunc(func(int) int { return 0 }), gen, 0)

	_, source := s.Select(context.Background(), false, []string{"hello"})
	assert.Equal(t, models.ReplySourceNeutral, source)
	assert.Zero(t, gen.calls)
}

func TestReplySelector_RandomPickerStaysInSet(t *testing.T) {
	s := newTestSelector(nil, nil, 0)

	for i := 0; i < 50; i++ {
		reply, _ := s.Select(context.Background(), false, nil)
		assert.Contains(t, DefaultNeutralReplies, reply)
	}
}

func TestReplySelector_ScamWithoutGenerator(t *testing.T) {
	s := newTestSelector(nil, nil, 0)

	reply, source := s.Select(context.Background(), true, []string{"urgent otp"})
	assert.Equal(t, DefaultScamReply, reply)
	assert.Equal(t, models.ReplySourceScam, source)
}

func TestReplySelector_GeneratorReply(t *testing.T) {
	gen := &fakeGenerator{reply: "  Oh, which bank should I use?  "}
	s := newTestSelector(nil, gen, time.Second)

	reply, source := s.Select(context.Background(), true, []string{"urgent otp"})
	assert.Equal(t, "Oh, which bank should I use?", reply)
	assert.Equal(t, models.ReplySourceLLM, source)
}

func TestReplySelector_HistoryWindow(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	s := newTestSelector(nil, gen, time.Second)

	history := []string{"1", "2", "3", "4", "5", "6", "7", "8"}
	_, _ = s.Select(context.Background(), true, history)

	assert.Equal(t, []string{"3", "4", "5", "6", "7", "8"}, gen.history)
}

func TestReplySelector_Fallbacks(t *testing.T) {
	cases := []struct {
		name string
		gen  *fakeGenerator
	}{
		{"error", &fakeGenerator{err: errors.New("quota exceeded")}},
		{"empty", &fakeGenerator{reply: "   "}},
		{"panic", &fakeGenerator{panics: true}},
		{"timeout", &fakeGenerator{reply: "too late", delay: time.Second}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSelector(nil, tc.gen, 50*time.Millisecond)

			start := time.Now()
			reply, source := s.Select(context.Background(), true, []string{"urgent otp"})

			assert.Equal(t, DefaultScamReply, reply)
			assert.Equal(t, models.ReplySourceFallback, source)
			assert.Less(t, time.Since(start), 500*time.Millisecond)
		})
	}
}

func TestReplySelector_CancelledContext(t *testing.T) {
	gen := &fakeGenerator{reply: "late", delay: time.Second}
	s := newTestSelector(nil, gen, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reply, source := s.Select(ctx, true, []string{"urgent otp"})
	assert.Equal(t, DefaultScamReply, reply)
	assert.Equal(t, models.ReplySourceFallback, source)
}

func TestReplySelector_CustomPhrases(t *testing.T) {
	s := NewReplySelector(ReplySelectorConfig{
		NeutralReplies: []string{"only"},
		ScamReply:      "send it",
		PingReply:      "yes?",
	}, nil, nil, logger.NewNop())

	reply, _ := s.Select(context.Background(), false, nil)
	assert.Equal(t, "only", reply)
	reply, _ = s.Select(context.Background(), true, nil)
	assert.Equal(t, "send it", reply)
	assert.Equal(t, "yes?", s.PingReply())
	assert.Equal(t, "send it", s.ScamReply())
}
