package services

import (
	"context"
	"fmt"
	"sync"

	"honeypot-lab/internal/domain/models"
	"honeypot-lab/internal/domain/services/ai"
	"honeypot-lab/internal/infrastructure/store"
	"honeypot-lab/pkg/logger"
)

// DefaultReportMinMessages is the conversation length at which a scam
// engagement gets reported
const DefaultReportMinMessages = 3

// EventPublisher receives honeypot events. Implementations must not block.
type EventPublisher interface {
	PublishIntelligence(ctx context.Context, conversationID string, result models.ClassificationResult, findings models.ExtractedIntelligence) error
	PublishEngagementReport(ctx context.Context, conv *models.Conversation, confidence float64) error
}

// HoneypotConfig contains pipeline options
type HoneypotConfig struct {
	// ExtractRequiresScam only extracts intelligence from scam-classified messages
	ExtractRequiresScam bool
	ReportMinMessages   int
}

// HoneypotService runs the engagement pipeline: classify, extract, update
// the conversation, pick a reply and publish events
type HoneypotService struct {
	detector  *ai.ScamDetector
	extractor *ai.EntityExtractor
	replies   *ai.ReplySelector
	store     store.ConversationStore
	publisher EventPublisher
	config    HoneypotConfig
	logger    *logger.Logger

	statsMu         sync.RWMutex
	stats           models.HoneypotStats
	confidenceTotal float64
}

// NewHoneypotService creates the pipeline. conversations and publisher may be
// nil: without a store every request is handled statelessly.
func NewHoneypotService(
	detector *ai.ScamDetector,
	extractor *ai.EntityExtractor,
	replies *ai.ReplySelector,
	conversations store.ConversationStore,
	publisher EventPublisher,
	cfg HoneypotConfig,
	log *logger.Logger,
) *HoneypotService {
	if cfg.ReportMinMessages <= 0 {
		cfg.ReportMinMessages = DefaultReportMinMessages
	}

	return &HoneypotService{
		detector:  detector,
		extractor: extractor,
		replies:   replies,
		store:     conversations,
		publisher: publisher,
		config:    cfg,
		logger:    log.WithComponent("honeypot"),
		stats: models.HoneypotStats{
			IntelligenceCounts: make(map[string]int64),
		},
	}
}

// Analyze classifies a message and extracts intelligence without touching
// any conversation state
func (s *HoneypotService) Analyze(text string) (models.ClassificationResult, models.ExtractedIntelligence) {
	result := s.detector.Classify(text)
	gate := !s.config.ExtractRequiresScam || result.IsScam
	return result, s.extractor.Extract(text, gate)
}

// Engage handles one inbound message. Reply generation problems never fail
// the call; only store errors are returned.
func (s *HoneypotService) Engage(ctx context.Context, req models.EngageRequest) (*models.EngageResult, error) {
	log := s.logger
	if req.ConversationID != "" {
		log = log.WithConversationID(req.ConversationID)
	}

	if req.Message.IsEmpty() {
		s.recordPing()
		return &models.EngageResult{
			Classification: models.ClassificationResult{},
			Extracted:      models.NewExtractedIntelligence(),
			Reply:          s.replies.PingReply(),
			ReplySource:    models.ReplySourcePing,
			ConversationID: req.ConversationID,
			Ping:           true,
		}, nil
	}

	text := req.Message.Trimmed
	classification, findings := s.Analyze(text)

	result := &models.EngageResult{
		Classification: classification,
		IsScam:         classification.IsScam,
		Extracted:      findings,
		ConversationID: req.ConversationID,
	}

	history := append(append([]string{}, req.History...), text)

	var (
		conv         *models.Conversation
		shouldReport bool
	)
	if s.store != nil && req.ConversationID != "" {
		// Inside a conversation the gate follows the sticky scam flag, so
		// follow-up turns without keywords still yield their intelligence.
		candidates := s.extractor.Extract(text, true)

		var err error
		conv, err = s.store.Update(ctx, req.ConversationID, func(c *models.Conversation) {
			shouldReport = false

			c.Append(text)
			if classification.IsScam {
				c.MarkScam()
			}
			findings = models.NewExtractedIntelligence()
			if !s.config.ExtractRequiresScam || c.ScamDetected {
				findings = candidates
			}
			c.MergeExtracted(findings)

			if c.ScamDetected && !c.Reported && len(c.Messages) >= s.config.ReportMinMessages {
				c.Reported = true
				shouldReport = true
			}
		})
		if err != nil {
			return nil, fmt.Errorf("failed to update conversation: %w", err)
		}

		result.IsScam = conv.ScamDetected
		result.Extracted = conv.Extracted.Clone()

		// A fresh conversation is seeded with the history the client sent along.
		if len(conv.Messages) > 1 || len(req.History) == 0 {
			history = conv.Messages
		}
	}

	result.Reply, result.ReplySource = s.replies.Select(ctx, result.IsScam, history)

	if result.IsScam && !findings.IsEmpty() {
		s.publishIntelligence(ctx, log, req.ConversationID, classification, findings)
	}
	if shouldReport {
		s.publishReport(ctx, log, conv, classification.Confidence)
	}

	s.record(classification, findings, result.ReplySource, shouldReport)

	log.Debug().
		Bool("is_scam", result.IsScam).
		Int("hits", classification.Hits).
		Int("findings", findings.Count()).
		Str("reply_source", string(result.ReplySource)).
		Msg("message engaged")

	return result, nil
}

// GetConversation returns the stored state of a conversation
func (s *HoneypotService) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	if s.store == nil {
		return nil, store.ErrConversationNotFound
	}
	return s.store.Get(ctx, id)
}

// DeleteConversation forgets a conversation
func (s *HoneypotService) DeleteConversation(ctx context.Context, id string) error {
	if s.store == nil {
		return store.ErrConversationNotFound
	}
	return s.store.Delete(ctx, id)
}

// Stats returns a snapshot of pipeline counters
func (s *HoneypotService) Stats() models.HoneypotStats {
	s.statsMu.RLock()
	defer s.statsMu.RUnlock()

	stats := s.stats
	stats.IntelligenceCounts = make(map[string]int64, len(s.stats.IntelligenceCounts))
	for k, v := range s.stats.IntelligenceCounts {
		stats.IntelligenceCounts[k] = v
	}
	if stats.TotalAnalyzed > 0 {
		stats.AvgConfidence = s.confidenceTotal / float64(stats.TotalAnalyzed)
	}
	return stats
}

func (s *HoneypotService) publishIntelligence(ctx context.Context, log *logger.Logger, convID string, result models.ClassificationResult, findings models.ExtractedIntelligence) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishIntelligence(ctx, convID, result, findings); err != nil {
		log.Warn().Err(err).Msg("failed to publish intelligence event")
	}
}

func (s *HoneypotService) publishReport(ctx context.Context, log *logger.Logger, conv *models.Conversation, confidence float64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEngagementReport(ctx, conv, confidence); err != nil {
		log.Warn().Err(err).Msg("failed to publish engagement report")
		return
	}
	log.Info().Int("messages", len(conv.Messages)).Int("findings", conv.Extracted.Count()).Msg("engagement reported")
}

func (s *HoneypotService) recordPing() {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	s.stats.Pings++
}

func (s *HoneypotService) record(result models.ClassificationResult, findings models.ExtractedIntelligence, source models.ReplySource, reported bool) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	s.stats.TotalAnalyzed++
	s.confidenceTotal += result.Confidence
	if result.IsScam {
		s.stats.ScamsDetected++
	}
	switch source {
	case models.ReplySourceLLM:
		s.stats.LLMReplies++
	case models.ReplySourceFallback:
		s.stats.FallbackReplies++
	}
	if reported {
		s.stats.ReportsPublished++
	}

	s.stats.IntelligenceCounts["bank_accounts"] += int64(len(findings.BankAccounts))
	s.stats.IntelligenceCounts["upi_ids"] += int64(len(findings.UPIIDs))
	s.stats.IntelligenceCounts["phishing_links"] += int64(len(findings.PhishingLinks))
	s.stats.IntelligenceCounts["phone_numbers"] += int64(len(findings.PhoneNumbers))
}
