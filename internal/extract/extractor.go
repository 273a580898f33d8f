// Package extract handles the intake side of the pipeline: finding
// candidate account numbers in free text, validating their format, and
// deciding whether a message is an eligibility question at all.
package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/Mutisya18/organic-fishstick-RAG/internal/domain"
)

// accountPattern matches maximal runs of exactly ten digits. The word
// boundaries make digit runs contiguous, so an 11-digit run never
// yields a spurious 10-digit match.
var accountPattern = regexp.MustCompile(`\b\d{10}\b`)

// AccountExtractor scans free text for candidate account numbers.
type AccountExtractor struct {
	logger domain.AuditLogger
}

// NewAccountExtractor creates an extractor reporting to logger.
func NewAccountExtractor(logger domain.AuditLogger) *AccountExtractor {
	return &AccountExtractor{logger: logger}
}

// Extract returns the 10-digit runs found in message, deduplicated and
// in first-occurrence order. Empty or whitespace-only input yields an
// empty slice. Only counts are logged, never the numbers themselves.
func (e *AccountExtractor) Extract(ctx context.Context, requestID, message string) []string {
	if strings.TrimSpace(message) == "" {
		return []string{}
	}

	matches := accountPattern.FindAllString(message, -1)

	seen := make(map[string]struct{}, len(matches))
	accounts := make([]string, 0, len(matches))
	for _, account := range matches {
		if _, ok := seen[account]; ok {
			continue
		}
		seen[account] = struct{}{}
		accounts = append(accounts, account)
	}

	e.logger.Log(ctx, requestID, "account_extraction", domain.SeverityDebug,
		"Account extraction completed",
		map[string]any{
			"account_count":  len(accounts),
			"message_length": len(message),
		})

	return accounts
}
