// Package payload assembles and validates the structured response
// handed to the downstream explanation pipeline.
package payload

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Mutisya18/organic-fishstick-RAG/internal/domain"
)

// Builder assembles Payloads from account results.
type Builder struct {
	logger domain.AuditLogger
}

// NewBuilder creates a payload builder reporting to logger.
func NewBuilder(logger domain.AuditLogger) *Builder {
	return &Builder{logger: logger}
}

// Build assembles a payload from results in a single scan. Empty
// results yield a minimal valid payload with all counts zero. The
// payload is structurally validated; violations are logged but the
// payload is still returned.
func (b *Builder) Build(ctx context.Context, results []domain.AccountResult, requestID string, processingLatencyMs float64) *domain.Payload {
	if len(results) == 0 {
		b.logger.Log(ctx, requestID, "payload_build", domain.SeverityWarning,
			"No eligibility results provided for payload",
			map[string]any{"result_count": 0})
		return b.emptyPayload(requestID)
	}

	start := time.Now()

	summary := domain.Summary{
		TotalAccounts:       len(results),
		ProcessingLatencyMs: processingLatencyMs,
	}

	for _, result := range results {
		switch result.Status {
		case domain.StatusEligible:
			summary.EligibleCount++
		case domain.StatusNotEligible:
			summary.NotEligibleCount++
		default:
			summary.CannotConfirmCount++
		}

		summary.TotalReasonsExtracted += len(result.Reasons)
		for _, reason := range result.Reasons {
			if reason.ExplanationStatus == domain.ExplanationReady {
				summary.ReasonsReadyForLLM++
			}
		}
	}

	p := &domain.Payload{
		RequestID:      requestID,
		BatchTimestamp: domain.BatchTimestamp(time.Now()),
		Accounts:       results,
		Summary:        summary,
	}

	if b.validate(ctx, p, requestID) {
		b.logger.Log(ctx, requestID, "payload_complete", domain.SeverityInfo,
			"Payload built and validated",
			map[string]any{
				"total_accounts":   summary.TotalAccounts,
				"total_reasons":    summary.TotalReasonsExtracted,
				"build_latency_ms": float64(time.Since(start).Microseconds()) / 1000.0,
			})
	}

	return p
}

// BuildJSON assembles a payload and serializes it.
func (b *Builder) BuildJSON(ctx context.Context, results []domain.AccountResult, requestID string, processingLatencyMs float64) (string, error) {
	p := b.Build(ctx, results, requestID, processingLatencyMs)

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		b.logger.Log(ctx, requestID, "payload_serialization_error", domain.SeverityError,
			"Failed to serialize payload",
			map[string]any{"error": err.Error()})
		return "", fmt.Errorf("failed to serialize payload: %w", err)
	}

	return string(data), nil
}

func (b *Builder) emptyPayload(requestID string) *domain.Payload {
	return &domain.Payload{
		RequestID:      requestID,
		BatchTimestamp: domain.BatchTimestamp(time.Now()),
		Accounts:       []domain.AccountResult{},
	}
}

// validate checks the structural contract of a built payload. It only
// logs; the payload is returned to the caller regardless.
func (b *Builder) validate(ctx context.Context, p *domain.Payload, requestID string) bool {
	valid := true

	if p.RequestID == "" || p.BatchTimestamp == "" {
		b.logger.Log(ctx, requestID, "payload_validation_error", domain.SeverityError,
			"Payload missing request_id or batch_timestamp", nil)
		valid = false
	}

	if p.Accounts == nil {
		b.logger.Log(ctx, requestID, "payload_validation_error", domain.SeverityError,
			"Payload accounts is not a list", nil)
		valid = false
	}

	for i, account := range p.Accounts {
		if account.AccountNumberHash == "" {
			b.logger.Log(ctx, requestID, "payload_validation_error", domain.SeverityError,
				fmt.Sprintf("Account at index %d missing account_number_hash", i),
				map[string]any{"index": i})
			valid = false
		}

		switch account.Status {
		case domain.StatusEligible, domain.StatusNotEligible, domain.StatusCannotConfirm:
		default:
			b.logger.Log(ctx, requestID, "payload_validation_error", domain.SeverityError,
				fmt.Sprintf("Account at index %d has invalid status", i),
				map[string]any{"index": i, "status": account.Status})
			valid = false
		}
	}

	sum := p.Summary.EligibleCount + p.Summary.NotEligibleCount + p.Summary.CannotConfirmCount
	if sum != p.Summary.TotalAccounts || len(p.Accounts) != p.Summary.TotalAccounts {
		b.logger.Log(ctx, requestID, "payload_validation_error", domain.SeverityError,
			"Payload summary counts are inconsistent",
			map[string]any{
				"total_accounts": p.Summary.TotalAccounts,
				"status_sum":     sum,
				"accounts_len":   len(p.Accounts),
			})
		valid = false
	}

	if valid {
		b.logger.Log(ctx, requestID, "payload_validation_success", domain.SeverityDebug,
			"Payload validation successful",
			map[string]any{"account_count": len(p.Accounts)})
	}

	return valid
}
