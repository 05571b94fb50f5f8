package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const roundTripMessage = "urgent: verify your bank account 1234567890, pay at user@upi or visit https://scam.example"

func TestEntityExtractor_RoundTrip(t *testing.T) {
	e := NewEntityExtractor(EntityExtractorConfig{ExtractPhones: false})

	got := e.Extract(roundTripMessage, true)

	assert.Equal(t, []string{"1234567890"}, got.BankAccounts)
	assert.Equal(t, []string{"user@upi"}, got.UPIIDs)
	assert.Equal(t, []string{"https://scam.example"}, got.PhishingLinks)
	assert.Empty(t, got.PhoneNumbers)
	assert.NotNil(t, got.PhoneNumbers)
}

func TestEntityExtractor_GateClosed(t *testing.T) {
	e := NewEntityExtractor(EntityExtractorConfig{ExtractPhones: true})

	got := e.Extract(roundTripMessage, false)

	assert.True(t, got.IsEmpty())
	assert.NotNil(t, got.BankAccounts)
	assert.NotNil(t, got.UPIIDs)
	assert.NotNil(t, got.PhishingLinks)
	assert.NotNil(t, got.PhoneNumbers)
}

func TestEntityExtractor_NoMatchesAreEmptyLists(t *testing.T) {
	e := NewEntityExtractor(EntityExtractorConfig{ExtractPhones: true})

	got := e.Extract("nothing to see here", true)

	assert.Equal(t, []string{}, got.BankAccounts)
	assert.Equal(t, []string{}, got.UPIIDs)
	assert.Equal(t, []string{}, got.PhishingLinks)
	assert.Equal(t, []string{}, got.PhoneNumbers)
}

func TestEntityExtractor_OrderAndDuplicates(t *testing.T) {
	e := NewEntityExtractor(EntityExtractorConfig{})

	got := e.Extract("send to 111122223333 then 999988887777 then 111122223333", true)

	assert.Equal(t, []string{"111122223333", "999988887777", "111122223333"}, got.BankAccounts)
}

func TestEntityExtractor_BankAccountLength(t *testing.T) {
	e := NewEntityExtractor(EntityExtractorConfig{})

	assert.Empty(t, e.Extract("code 12345678", true).BankAccounts)
	assert.Equal(t, []string{"123456789"}, e.Extract("acct 123456789", true).BankAccounts)
	assert.Equal(t, []string{"123456789012345678"}, e.Extract("acct 123456789012345678", true).BankAccounts)
	assert.Empty(t, e.Extract("acct 1234567890123456789", true).BankAccounts)
}

func TestEntityExtractor_Links(t *testing.T) {
	e := NewEntityExtractor(EntityExtractorConfig{})

	got := e.Extract("go to http://a.example/x?y=1 and https://b.example/login now", true)

	assert.Equal(t, []string{"http://a.example/x?y=1", "https://b.example/login"}, got.PhishingLinks)
}

func TestEntityExtractor_Phones(t *testing.T) {
	text := "call +919876543210 or 9876543210 today"

	off := NewEntityExtractor(EntityExtractorConfig{ExtractPhones: false}).Extract(text, true)
	assert.Empty(t, off.PhoneNumbers)

	on := NewEntityExtractor(EntityExtractorConfig{ExtractPhones: true}).Extract(text, true)
	assert.Equal(t, []string{"+919876543210", "9876543210"}, on.PhoneNumbers)
}

func TestEntityExtractor_Idempotent(t *testing.T) {
	e := NewEntityExtractor(EntityExtractorConfig{ExtractPhones: true})

	first := e.Extract(roundTripMessage, true)
	second := e.Extract(roundTripMessage, true)

	assert.Equal(t, first, second)
}
