package models

import (
	"strings"
	"time"
)

// Message is one inbound text turn
type Message struct {
	Raw     string `json:"raw"`
	Trimmed string `json:"text"`
}

// NewMessage builds a message from the raw payload text
func NewMessage(raw string) Message {
	return Message{Raw: raw, Trimmed: strings.TrimSpace(raw)}
}

// IsEmpty reports whether the message carries no text (the ping case)
func (m Message) IsEmpty() bool {
	return m.Trimmed == ""
}

// ClassificationResult is the scam verdict for a single message
type ClassificationResult struct {
	IsScam     bool     `json:"is_scam"`
	Confidence float64  `json:"confidence"`
	Hits       int      `json:"hits"`
	Matched    []string `json:"matched,omitempty"`
}

// ExtractedIntelligence holds structured findings in the order they were seen.
// Duplicates are kept.
type ExtractedIntelligence struct {
	BankAccounts  []string `json:"bank_accounts"`
	UPIIDs        []string `json:"upi_ids"`
	PhishingLinks []string `json:"phishing_links"`
	PhoneNumbers  []string `json:"phone_numbers,omitempty"`
}

// NewExtractedIntelligence returns findings with non-nil empty lists
func NewExtractedIntelligence() ExtractedIntelligence {
	return ExtractedIntelligence{
		BankAccounts:  []string{},
		UPIIDs:        []string{},
		PhishingLinks: []string{},
		PhoneNumbers:  []string{},
	}
}

// Count returns the total number of findings across all lists
func (e ExtractedIntelligence) Count() int {
	return len(e.BankAccounts) + len(e.UPIIDs) + len(e.PhishingLinks) + len(e.PhoneNumbers)
}

// IsEmpty reports whether nothing was found
func (e ExtractedIntelligence) IsEmpty() bool {
	return e.Count() == 0
}

// Clone returns a deep copy
func (e ExtractedIntelligence) Clone() ExtractedIntelligence {
	return ExtractedIntelligence{
		BankAccounts:  append([]string{}, e.BankAccounts...),
		UPIIDs:        append([]string{}, e.UPIIDs...),
		PhishingLinks: append([]string{}, e.PhishingLinks...),
		PhoneNumbers:  append([]string{}, e.PhoneNumbers...),
	}
}

// Conversation is the accumulated state for one counterpart
type Conversation struct {
	ID           string                `json:"id"`
	Messages     []string              `json:"messages"`
	Extracted    ExtractedIntelligence `json:"extracted"`
	ScamDetected bool                  `json:"scam_detected"`
	Reported     bool                  `json:"reported"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// NewConversation creates an empty conversation stamped with now
func NewConversation(id string, now time.Time) *Conversation {
	return &Conversation{
		ID:        id,
		Messages:  []string{},
		Extracted: NewExtractedIntelligence(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append pushes a message to the history
func (c *Conversation) Append(text string) {
	c.Messages = append(c.Messages, text)
}

// MergeExtracted appends every finding to the cumulative lists
func (c *Conversation) MergeExtracted(findings ExtractedIntelligence) {
	c.Extracted.BankAccounts = append(c.Extracted.BankAccounts, findings.BankAccounts...)
	c.Extracted.UPIIDs = append(c.Extracted.UPIIDs, findings.UPIIDs...)
	c.Extracted.PhishingLinks = append(c.Extracted.PhishingLinks, findings.PhishingLinks...)
	c.Extracted.PhoneNumbers = append(c.Extracted.PhoneNumbers, findings.PhoneNumbers...)
}

// MarkScam sets the scam flag. The flag is never cleared.
func (c *Conversation) MarkScam() {
	c.ScamDetected = true
}

// RecentMessages returns up to the last n messages
func (c *Conversation) RecentMessages(n int) []string {
	if n <= 0 || len(c.Messages) <= n {
		return append([]string{}, c.Messages...)
	}
	return append([]string{}, c.Messages[len(c.Messages)-n:]...)
}

// Clone returns a deep copy so callers never share slices with a store
func (c *Conversation) Clone() *Conversation {
	cp := *c
	cp.Messages = append([]string{}, c.Messages...)
	cp.Extracted = c.Extracted.Clone()
	return &cp
}

// EngageRequest is the normalized input of the honeypot pipeline
type EngageRequest struct {
	Message        Message
	ConversationID string
	History        []string
	Metadata       map[string]any
}

// EngageResult is the pipeline output before serialization
type EngageResult struct {
	Classification ClassificationResult
	IsScam         bool
	Extracted      ExtractedIntelligence
	Reply          string
	ReplySource    ReplySource
	ConversationID string
	Ping           bool
}

// ReplySource records where the agent reply came from
type ReplySource string

const (
	ReplySourcePing     ReplySource = "ping"
	ReplySourceNeutral  ReplySource = "neutral"
	ReplySourceScam     ReplySource = "scam"
	ReplySourceLLM      ReplySource = "llm"
	ReplySourceFallback ReplySource = "fallback"
)

// HoneypotStats contains counters about pipeline activity
type HoneypotStats struct {
	TotalAnalyzed      int64            `json:"total_analyzed"`
	Pings              int64            `json:"pings"`
	ScamsDetected      int64            `json:"scams_detected"`
	LLMReplies         int64            `json:"llm_replies"`
	FallbackReplies    int64            `json:"fallback_replies"`
	ReportsPublished   int64            `json:"reports_published"`
	IntelligenceCounts map[string]int64 `json:"intelligence_counts"`
	AvgConfidence      float64          `json:"avg_confidence"`
}
