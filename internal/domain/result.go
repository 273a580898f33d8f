package domain

import "time"

// Account status values.
const (
	StatusEligible      = "ELIGIBLE"
	StatusNotEligible   = "NOT_ELIGIBLE"
	StatusCannotConfirm = "CANNOT_CONFIRM"

	// StatusError marks terminal error payloads.
	StatusError = "ERROR"
)

// Reason validation and explanation-gating states.
const (
	ValidationPassed = "passed"
	ValidationFailed = "failed"

	ExplanationReady   = "ready"
	ExplanationBlocked = "blocked"
)

// Record is a raw tabular row keyed by column name. Values are kept as
// strings; numeric coercion happens in the facts builders.
type Record map[string]string

// Reason is one extracted ineligibility reason with its supporting
// evidence, playbook enrichment, and explanation gating.
type Reason struct {
	Code     string         `json:"code"`
	Meaning  string         `json:"meaning"`
	Facts    []string       `json:"facts"`
	Evidence map[string]any `json:"evidence"`

	NextSteps    []PlaybookStep `json:"next_steps"`
	ReviewType   string         `json:"review_type"`
	ReviewTiming string         `json:"review_timing"`
	Constraints  []string       `json:"constraints"`

	EvidenceDisplay []string `json:"evidence_display"`

	ValidationStatus string   `json:"validation_status"`
	RequiredFacts    []string `json:"required_facts"`
	MissingFacts     []string `json:"missing_facts"`

	ExplanationStatus string `json:"explanation_status"`
	ExplanationError  string `json:"explanation_error,omitempty"`
}

// AccountResult is the per-account outcome of an eligibility check.
// The raw account number is never logged; only AccountNumberHash is.
type AccountResult struct {
	AccountNumber     string   `json:"account_number"`
	AccountNumberHash string   `json:"account_number_hash"`
	CustomerName      string   `json:"customer_name"`
	Status            string   `json:"status"`
	Reasons           []Reason `json:"reasons"`
}

// ReadyReasons returns the reasons cleared for downstream explanation.
func (r *AccountResult) ReadyReasons() []Reason {
	var out []Reason
	for _, reason := range r.Reasons {
		if reason.ExplanationStatus == ExplanationReady {
			out = append(out, reason)
		}
	}
	return out
}

// BlockedReasons returns the reasons held back for missing evidence.
func (r *AccountResult) BlockedReasons() []Reason {
	var out []Reason
	for _, reason := range r.Reasons {
		if reason.ExplanationStatus == ExplanationBlocked {
			out = append(out, reason)
		}
	}
	return out
}

// Summary aggregates counts over a batch of account results.
type Summary struct {
	TotalAccounts         int     `json:"total_accounts"`
	EligibleCount         int     `json:"eligible_count"`
	NotEligibleCount      int     `json:"not_eligible_count"`
	CannotConfirmCount    int     `json:"cannot_confirm_count"`
	TotalReasonsExtracted int     `json:"total_reasons_extracted"`
	ReasonsReadyForLLM    int     `json:"reasons_ready_for_llm"`
	ProcessingLatencyMs   float64 `json:"processing_latency_ms"`
}

// Payload is the top-level response for one eligibility request.
// It is constructed fresh per request and immutable once returned.
type Payload struct {
	RequestID      string `json:"request_id"`
	BatchTimestamp string `json:"batch_timestamp"`

	// Status, ErrorType, and ErrorMessage are set only on terminal
	// error payloads.
	Status       string `json:"status,omitempty"`
	ErrorType    string `json:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	Accounts []AccountResult `json:"accounts"`
	Summary  Summary         `json:"summary"`
}

// BatchTimestamp formats t as ISO-8601 UTC with millisecond precision
// and a trailing Z, the wire format downstream consumers expect.
func BatchTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// NewErrorPayload builds a terminal error payload. The caller always
// receives a well-formed response object, never a raised error.
func NewErrorPayload(requestID, errorType, errorMessage string) *Payload {
	return &Payload{
		RequestID:      requestID,
		BatchTimestamp: BatchTimestamp(time.Now()),
		Status:         StatusError,
		ErrorType:      errorType,
		ErrorMessage:   errorMessage,
		Accounts:       []AccountResult{},
	}
}
