package ai

import (
	"math"
	"strings"

	"honeypot-lab/internal/domain/models"
)

const (
	// DefaultScamThreshold is the number of keyword hits that makes a message a scam
	DefaultScamThreshold = 2

	// confidenceSaturation is the hit count at which confidence reaches 1.0
	confidenceSaturation = 5
)

// ScamDetector scores text against a configurable keyword list
type ScamDetector struct {
	keywords  []string
	threshold int
}

// ScamDetectorConfig contains configuration for the scam detector
type ScamDetectorConfig struct {
	Keywords  []string
	Threshold int
}

// NewScamDetector creates a new scam detector. Keywords are lower-cased and
// trimmed; blank and duplicate entries are dropped.
func NewScamDetector(cfg ScamDetectorConfig) *ScamDetector {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultScamThreshold
	}

	seen := make(map[string]bool, len(cfg.Keywords))
	keywords := make([]string, 0, len(cfg.Keywords))
	for _, k := range cfg.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keywords = append(keywords, k)
	}

	return &ScamDetector{
		keywords:  keywords,
		threshold: cfg.Threshold,
	}
}

// Keywords returns a copy of the normalized keyword list
func (d *ScamDetector) Keywords() []string {
	return append([]string{}, d.keywords...)
}

// Threshold returns the hit count needed for a scam verdict
func (d *ScamDetector) Threshold() int {
	return d.threshold
}

// Classify counts how many keywords occur in text and derives the verdict.
// Each keyword counts once no matter how often it appears.
func (d *ScamDetector) Classify(text string) models.ClassificationResult {
	lower := strings.ToLower(text)

	var matched []string
	if lower != "" {
		for _, k := range d.keywords {
			if strings.Contains(lower, k) {
				matched = append(matched, k)
			}
		}
	}

	hits := len(matched)
	return models.ClassificationResult{
		IsScam:     hits >= d.threshold,
		Confidence: Confidence(hits),
		Hits:       hits,
		Matched:    matched,
	}
}

// Confidence maps a hit count to min(hits/5, 1)
func Confidence(hits int) float64 {
	if hits <= 0 {
		return 0
	}
	return math.Min(float64(hits)/confidenceSaturation, 1.0)
}
