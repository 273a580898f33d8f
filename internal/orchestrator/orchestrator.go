// Package orchestrator sequences the eligibility pipeline. It owns
// error containment: ProcessMessage never propagates a panic to its
// caller, converting every failure into a structured error payload.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Mutisya18/organic-fishstick-RAG/internal/audit"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/data"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/domain"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/extract"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/payload"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/reason"
)

// Orchestrator wires the pipeline stages together behind a single
// entry point. All collaborators are injected at construction and
// shared across requests; the orchestrator itself holds no mutable
// per-request state and is safe for concurrent use.
type Orchestrator struct {
	intent    *extract.IntentClassifier
	extractor *extract.AccountExtractor
	validator *extract.AccountValidator
	engine    *reason.Engine
	builder   *payload.Builder
	dataStore *data.Store
	logger    domain.AuditLogger
}

// New creates an orchestrator from its pipeline stages.
func New(intent *extract.IntentClassifier, extractor *extract.AccountExtractor, validator *extract.AccountValidator, engine *reason.Engine, builder *payload.Builder, dataStore *data.Store, logger domain.AuditLogger) *Orchestrator {
	return &Orchestrator{
		intent:    intent,
		extractor: extractor,
		validator: validator,
		engine:    engine,
		builder:   builder,
		dataStore: dataStore,
		logger:    logger,
	}
}

// ProcessMessage runs the full pipeline for one inbound message. It
// returns nil when the message is not an eligibility inquiry, a
// success payload when processing completes, and an error payload for
// every failure in between. It never panics.
func (o *Orchestrator) ProcessMessage(ctx context.Context, message string) (p *domain.Payload) {
	requestID := audit.NewRequestID()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Log(ctx, requestID, "pipeline_panic", domain.SeverityCritical,
				"Unexpected failure in eligibility pipeline",
				map[string]any{"panic": fmt.Sprintf("%v", r)})
			p = domain.NewErrorPayload(requestID, "internal_error",
				"An unexpected error occurred while checking eligibility. Please try again.")
		}
	}()

	isEligibilityQuestion, messageHash := o.intent.Detect(ctx, requestID, message)
	if !isEligibilityQuestion {
		o.logger.Log(ctx, requestID, "pipeline_skipped", domain.SeverityDebug,
			"Message is not an eligibility inquiry",
			map[string]any{"message_hash": messageHash})
		return nil
	}

	accounts := o.extractor.Extract(ctx, requestID, message)
	if len(accounts) == 0 {
		o.logger.Log(ctx, requestID, "pipeline_no_accounts", domain.SeverityWarning,
			"No account numbers found in eligibility inquiry",
			map[string]any{"message_hash": messageHash})
		return domain.NewErrorPayload(requestID, "no_accounts_found",
			"No account numbers found. Please share the 10-digit account number you would like checked.")
	}

	valid, invalid := o.validator.Validate(ctx, requestID, accounts)
	if len(valid) == 0 {
		o.logger.Log(ctx, requestID, "pipeline_all_invalid", domain.SeverityWarning,
			"All extracted account numbers failed validation",
			map[string]any{"invalid_count": len(invalid)})
		return domain.NewErrorPayload(requestID, "invalid_accounts",
			fmt.Sprintf("Invalid account numbers: %s. Account numbers must be exactly 10 digits.",
				strings.Join(invalid, ", ")))
	}

	results := o.engine.ProcessAccounts(ctx, requestID, valid)
	if len(results) == 0 {
		o.logger.Log(ctx, requestID, "pipeline_no_results", domain.SeverityError,
			"Eligibility engine returned no results for valid accounts",
			map[string]any{"valid_count": len(valid)})
		return domain.NewErrorPayload(requestID, "processing_failed",
			"Processing failed. Please try again or contact support.")
	}

	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0
	p = o.builder.Build(ctx, results, requestID, latencyMs)

	o.logger.Log(ctx, requestID, "pipeline_complete", domain.SeverityInfo,
		"Eligibility pipeline complete",
		map[string]any{
			"account_count": len(valid),
			"invalid_count": len(invalid),
			"latency_ms":    latencyMs,
		})
	return p
}

// Status reports readiness and data/rule counts for operational
// inspection. It never exposes account identifiers.
func (o *Orchestrator) Status() map[string]any {
	status := map[string]any{
		"ready":       true,
		"rules_count": o.engine.RulesCount(),
	}
	for k, v := range o.dataStore.Summary() {
		status[k] = v
	}
	return status
}
