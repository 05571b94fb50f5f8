package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	m := NewMessage("  hello  ")
	assert.Equal(t, "  hello  ", m.Raw)
	assert.Equal(t, "hello", m.Trimmed)
	assert.False(t, m.IsEmpty())

	assert.True(t, NewMessage(" \t\n").IsEmpty())
	assert.True(t, NewMessage("").IsEmpty())
}

func TestNewConversation(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewConversation("abc", now)

	assert.Equal(t, "abc", c.ID)
	assert.Empty(t, c.Messages)
	assert.NotNil(t, c.Messages)
	assert.True(t, c.Extracted.IsEmpty())
	assert.False(t, c.ScamDetected)
	assert.False(t, c.Reported)
	assert.Equal(t, now, c.CreatedAt)
	assert.Equal(t, now, c.UpdatedAt)
}

func TestConversation_MergeExtractedOnlyAppends(t *testing.T) {
	c := NewConversation("abc", time.Now())

	c.MergeExtracted(ExtractedIntelligence{
		BankAccounts: []string{"111111111"},
		UPIIDs:       []string{"a@upi"},
	})
	c.MergeExtracted(ExtractedIntelligence{
		BankAccounts:  []string{"111111111", "222222222"},
		PhishingLinks: []string{"https://x.example"},
		PhoneNumbers:  []string{"9876543210"},
	})
	c.MergeExtracted(NewExtractedIntelligence())

	assert.Equal(t, []string{"111111111", "111111111", "222222222"}, c.Extracted.BankAccounts)
	assert.Equal(t, []string{"a@upi"}, c.Extracted.UPIIDs)
	assert.Equal(t, []string{"https://x.example"}, c.Extracted.PhishingLinks)
	assert.Equal(t, []string{"9876543210"}, c.Extracted.PhoneNumbers)
	assert.Equal(t, 6, c.Extracted.Count())
}

func TestConversation_MarkScamIsSticky(t *testing.T) {
	c := NewConversation("abc", time.Now())
	c.MarkScam()
	c.MarkScam()
	assert.True(t, c.ScamDetected)
}

func TestConversation_RecentMessages(t *testing.T) {
	c := NewConversation("abc", time.Now())
	for _, m := range []string{"1", "2", "3", "4"} {
		c.Append(m)
	}

	assert.Equal(t, []string{"3", "4"}, c.RecentMessages(2))
	assert.Equal(t, []string{"1", "2", "3", "4"}, c.RecentMessages(10))
	assert.Equal(t, []string{"1", "2", "3", "4"}, c.RecentMessages(0))

	recent := c.RecentMessages(2)
	recent[0] = "changed"
	assert.Equal(t, "3", c.Messages[2])
}

func TestConversation_CloneIsDeep(t *testing.T) {
	c := NewConversation("abc", time.Now())
	c.Append("hi")
	c.MergeExtracted(ExtractedIntelligence{UPIIDs: []string{"a@upi"}})

	cp := c.Clone()
	cp.Append("more")
	cp.Extracted.UPIIDs[0] = "changed"
	cp.MarkScam()

	require.Len(t, c.Messages, 1)
	assert.Equal(t, "a@upi", c.Extracted.UPIIDs[0])
	assert.False(t, c.ScamDetected)
}
