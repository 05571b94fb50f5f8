package ai

import (
	"regexp"

	"honeypot-lab/internal/domain/models"
)

var (
	bankAccountPattern = regexp.MustCompile(`\b\d{9,18}\b`)
	upiPattern         = regexp.MustCompile(`\b[\w.-]+@[\w.-]+\b`)
	urlPattern         = regexp.MustCompile(`https?://[^\s]+`)
	phonePattern       = regexp.MustCompile(`(?:\+|\b)\d{10,13}\b`)
)

// EntityExtractor pulls payment handles, account numbers, links and phone
// numbers out of scammer messages
type EntityExtractor struct {
	extractPhones bool
}

// EntityExtractorConfig configures the extractor
type EntityExtractorConfig struct {
	ExtractPhones bool
}

// NewEntityExtractor creates a new entity extractor
func NewEntityExtractor(cfg EntityExtractorConfig) *EntityExtractor {
	return &EntityExtractor{extractPhones: cfg.ExtractPhones}
}

// Extract scans content with every pattern family independently. When gate is
// false all lists are empty regardless of content, so that non-scam turns never
// report intelligence.
func (e *EntityExtractor) Extract(content string, gate bool) models.ExtractedIntelligence {
	result := models.NewExtractedIntelligence()
	if !gate || content == "" {
		return result
	}

	result.BankAccounts = findAll(bankAccountPattern, content)
	result.UPIIDs = findAll(upiPattern, content)
	result.PhishingLinks = findAll(urlPattern, content)
	if e.extractPhones {
		result.PhoneNumbers = findAll(phonePattern, content)
	}

	return result
}

// findAll returns every non-overlapping match in order, never nil
func findAll(re *regexp.Regexp, content string) []string {
	matches := re.FindAllString(content, -1)
	if matches == nil {
		return []string{}
	}
	return matches
}
