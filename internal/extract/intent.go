package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/Mutisya18/organic-fishstick-RAG/internal/audit"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/domain"
)

// Eligibility question patterns, evaluated in order. Word boundaries
// keep phrases like "limited issue" from matching "limit issue".
var intentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\beligible\b|\beligibility\b`),
	regexp.MustCompile(`(?i)\bwhy\s+(?:is|am|are|should)\s+(?:i|we|customer|they|he|she)?\s*no\s+limit\b`),
	regexp.MustCompile(`(?i)\bloan\s+limit\b`),
	regexp.MustCompile(`(?i)\bnot\s+getting\s+(?:a\s+)?limit\b`),
	regexp.MustCompile(`(?i)\bcheck\s+eligibility\b`),
	regexp.MustCompile(`(?i)\blimit\s+allocation\s+failed\b`),
	regexp.MustCompile(`(?i)\bwhy\s+(?:is|am|are|was)\s+.*?excluded\b`),
	regexp.MustCompile(`(?i)\b(?:customer|account)?\s*excluded\b`),
	regexp.MustCompile(`(?i)\blimit\s+issue\b`),
}

// Fallback: a bare run of nine or more digits is treated as an account
// number and therefore an eligibility inquiry.
var digitRunPattern = regexp.MustCompile(`\b\d{9,}\b`)

// IntentClassifier decides whether a message is an eligibility inquiry.
type IntentClassifier struct {
	logger domain.AuditLogger
}

// NewIntentClassifier creates a classifier reporting to logger.
func NewIntentClassifier(logger domain.AuditLogger) *IntentClassifier {
	return &IntentClassifier{logger: logger}
}

// Detect reports whether message is an eligibility question, plus a
// non-reversible hash of the message for log correlation. Empty input
// yields (false, "").
func (c *IntentClassifier) Detect(ctx context.Context, requestID, message string) (bool, string) {
	if strings.TrimSpace(message) == "" {
		return false, ""
	}

	messageHash := audit.HashText(message)

	matched := false
	for _, pattern := range intentPatterns {
		if pattern.MatchString(message) {
			matched = true
			break
		}
	}

	if !matched {
		matched = digitRunPattern.MatchString(message)
	}

	c.logger.Log(ctx, requestID, "intent_detection", domain.SeverityDebug,
		"Intent detection completed",
		map[string]any{
			"is_eligibility_question": matched,
			"message_hash":            messageHash,
		})

	return matched, messageHash
}
