package services

import (
	"fmt"

	"honeypot-lab/internal/config"
	"honeypot-lab/internal/domain/services/ai"
	"honeypot-lab/internal/infrastructure/store"
	"honeypot-lab/pkg/logger"
)

// NewHoneypotServiceFromConfig assembles the pipeline from configuration.
// The LLM client is only created when llm.enabled is set.
func NewHoneypotServiceFromConfig(cfg *config.Config, conversations store.ConversationStore, publisher EventPublisher, log *logger.Logger) (*HoneypotService, error) {
	detector := ai.NewScamDetector(ai.ScamDetectorConfig{
		Keywords:  cfg.Honeypot.Keywords,
		Threshold: cfg.Honeypot.ScamThreshold,
	})
	extractor := ai.NewEntityExtractor(ai.EntityExtractorConfig{
		ExtractPhones: cfg.Honeypot.ExtractPhones,
	})

	var generator ai.ReplyGenerator
	if cfg.LLM.Enabled {
		client, err := ai.NewLLMClient(ai.LLMConfig{
			Provider:    cfg.LLM.Provider,
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		generator = client
	}

	replies := ai.NewReplySelector(ai.ReplySelectorConfig{
		NeutralReplies: cfg.Honeypot.NeutralReplies,
		ScamReply:      cfg.Honeypot.ScamReply,
		PingReply:      cfg.Honeypot.PingReply,
		Timeout:        cfg.LLM.Timeout,
		HistoryWindow:  cfg.LLM.HistoryWindow,
	}, ai.RandomPicker{}, generator, log)

	return NewHoneypotService(detector, extractor, replies, conversations, publisher, HoneypotConfig{
		ExtractRequiresScam: cfg.Honeypot.ExtractRequiresScam,
		ReportMinMessages:   cfg.Honeypot.ReportMinMessages,
	}, log), nil
}
