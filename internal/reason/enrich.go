package reason

import (
	"context"
	"strings"

	"github.com/Mutisya18/organic-fishstick-RAG/internal/domain"
)

// outputMarker introduces the canonical error message inside an
// explanation rule's free-text evidence validation clause.
const outputMarker = "output: "

// BuildEvidenceDisplay renders the human-readable evidence lines for a
// reason. A missing display rule or missing evidence fields degrade to
// a generic or warning line, never an error.
func (e *Engine) BuildEvidenceDisplay(ctx context.Context, requestID, reasonCode string, evidence map[string]any) []string {
	rule, ok := e.displayRules[reasonCode]

	if !ok || !rule.HasEvidence {
		if len(rule.DisplayLines) > 0 {
			return rule.DisplayLines
		}
		return []string{"Evidence: " + reasonCode}
	}

	var missing []string
	for _, field := range rule.RequiredFields {
		if value, ok := evidence[field]; !ok || value == nil {
			missing = append(missing, field)
		}
	}

	if len(missing) > 0 {
		e.logger.Log(ctx, requestID, "evidence_display_missing_fields", domain.SeverityWarning,
			"Missing evidence fields for "+reasonCode,
			map[string]any{
				"reason_code":    reasonCode,
				"missing_fields": missing,
			})

		missingError := rule.MissingError
		if missingError == "" {
			missingError = "Evidence missing"
		}
		return []string{"⚠️ " + missingError}
	}

	lines := make([]string, 0, len(rule.FormatTemplate))
	for _, template := range rule.FormatTemplate {
		line := template
		for field, value := range evidence {
			line = substitute(line, field, value)
		}
		lines = append(lines, line)
	}

	return lines
}

// ValidateAndEnrich applies explanation gating to each extracted
// reason: validation passes iff every required fact is present and
// non-null in the reason's evidence, and only passing reasons are
// marked ready for downstream explanation.
func (e *Engine) ValidateAndEnrich(ctx context.Context, requestID string, reasons []domain.Reason) []domain.Reason {
	for i := range reasons {
		reason := &reasons[i]
		rule := e.explanations[reason.Code]

		requiredFacts := rule.RequiredFacts
		if requiredFacts == nil {
			requiredFacts = []string{}
		}

		missing := []string{}
		for _, fact := range requiredFacts {
			if value, ok := reason.Evidence[fact]; !ok || value == nil {
				missing = append(missing, fact)
			}
		}

		reason.RequiredFacts = requiredFacts
		reason.MissingFacts = missing

		if len(missing) == 0 {
			reason.ValidationStatus = domain.ValidationPassed
			reason.ExplanationStatus = domain.ExplanationReady
			continue
		}

		reason.ValidationStatus = domain.ValidationFailed
		reason.ExplanationStatus = domain.ExplanationBlocked
		reason.ExplanationError = explanationError(reason.Code, rule.EvidenceValidation)

		evidenceKeys := make([]string, 0, len(reason.Evidence))
		for key := range reason.Evidence {
			evidenceKeys = append(evidenceKeys, key)
		}

		e.logger.Log(ctx, requestID, "reason_validation_failed", domain.SeverityWarning,
			"Reason "+reason.Code+" missing required evidence",
			map[string]any{
				"reason_code":        reason.Code,
				"missing_facts":      missing,
				"evidence_available": evidenceKeys,
				"explanation_error":  reason.ExplanationError,
			})
	}

	return reasons
}

// explanationError derives the user-facing error for a blocked reason
// from the rule's validation text. The clause after the last
// "output: " marker, stripped of surrounding quotes, is canonical; a
// generic fallback covers rules with no such marker.
func explanationError(reasonCode, validationText string) string {
	if idx := strings.LastIndex(validationText, outputMarker); idx >= 0 {
		msg := strings.TrimSpace(validationText[idx+len(outputMarker):])
		msg = strings.Trim(msg, `'"`)
		return msg
	}

	return "Cannot confirm " + strings.ToLower(reasonCode) + " (missing required evidence)."
}
