package domain

// TriggerKind is the closed set of trigger evaluation strategies.
// Raw config carries the kind as a string; it is resolved to one of
// these variants at config-load time so that unknown kinds surface as
// a load-time warning instead of a silent runtime no-op.
type TriggerKind int

const (
	TriggerUnknown TriggerKind = iota
	TriggerCheckEquals
	TriggerCheckSpecialEquals
	TriggerExpression
)

// ParseTriggerKind resolves a raw trigger type string to a TriggerKind.
func ParseTriggerKind(s string) TriggerKind {
	switch s {
	case "check_equals":
		return TriggerCheckEquals
	case "check_special_equals":
		return TriggerCheckSpecialEquals
	case "expression":
		return TriggerExpression
	default:
		return TriggerUnknown
	}
}

// BuilderKind is the closed set of facts/evidence builder strategies.
type BuilderKind int

const (
	BuilderUnknown BuilderKind = iota
	BuilderSimple
	BuilderSimpleWithEvidence
	BuilderSimpleWithParameters
	BuilderMaxWithEvidence
	BuilderMaxLegacy
)

// ParseBuilderKind resolves a raw builder type string to a BuilderKind.
func ParseBuilderKind(s string) BuilderKind {
	switch s {
	case "simple":
		return BuilderSimple
	case "simple_with_evidence":
		return BuilderSimpleWithEvidence
	case "simple_with_parameters":
		return BuilderSimpleWithParameters
	case "max_of_numeric_fields_with_evidence":
		return BuilderMaxWithEvidence
	case "max_of_numeric_fields":
		return BuilderMaxLegacy
	default:
		return BuilderUnknown
	}
}

// Trigger describes the condition that activates a reason.
type Trigger struct {
	Type         string `json:"type"`
	CheckColumn  string `json:"check_column,omitempty"`
	TriggerValue string `json:"trigger_value,omitempty"`

	// Expression is a CEL expression over the normalized row (variable
	// "row", map<string,dyn>). Only used when Type is "expression".
	Expression string `json:"expression,omitempty"`

	// Kind is resolved from Type at config-load time.
	Kind TriggerKind `json:"-"`
}

// FactsBuilder describes how facts and evidence are constructed for a
// triggered reason.
type FactsBuilder struct {
	Type          string   `json:"type"`
	Facts         []string `json:"facts,omitempty"`
	FactTemplates []string `json:"fact_templates,omitempty"`
	Fields        []string `json:"fields,omitempty"`

	// Kind is resolved from Type at config-load time.
	Kind BuilderKind `json:"-"`
}

// ReasonDefinition is one entry of the reason detection rules document.
// Definitions are evaluated in document order; each triggers independently.
type ReasonDefinition struct {
	ReasonCode      string       `json:"reason_code"`
	Trigger         Trigger      `json:"trigger"`
	FactsBuilder    FactsBuilder `json:"facts_builder"`
	EvidenceColumns []string     `json:"evidence_columns,omitempty"`
	RequiredFacts   []string     `json:"required_facts,omitempty"`
}

// NormalizationRules controls blank-value handling before trigger evaluation.
type NormalizationRules struct {
	BlankStringValues  []string `json:"blank_string_values"`
	NumericBlankToZero []string `json:"convert_blanks_to_zero_for_numeric_fields"`
}

// ChecksCatalog is the checks_catalog.json document.
type ChecksCatalog struct {
	Columns            []string           `json:"columns"`
	NormalizationRules NormalizationRules `json:"normalization_rules"`
}

// ReasonDetectionRules is the reason_detection_rules.json document.
type ReasonDetectionRules struct {
	Reasons []ReasonDefinition `json:"reasons"`
}

// PlaybookStep is a single remediation step for a reason.
type PlaybookStep struct {
	Action string `json:"action"`
	Owner  string `json:"owner"`
}

// PlaybookEntry is the user-facing explanation attached to a reason code.
type PlaybookEntry struct {
	Meaning      string         `json:"meaning"`
	NextSteps    []PlaybookStep `json:"next_steps"`
	ReviewType   string         `json:"review_type"`
	ReviewTiming string         `json:"review_timing"`
	Constraints  []string       `json:"constraints"`
}

// ReasonPlaybook is the reason_playbook.json document, keyed by reason code.
type ReasonPlaybook struct {
	Entries map[string]PlaybookEntry `json:"reason_playbook"`
}

// ExplanationRule gates whether a reason has enough evidence to be
// explained downstream.
type ExplanationRule struct {
	RequiredFacts []string `json:"required_facts"`

	// EvidenceValidation is free text; the clause after the literal
	// marker "output: " is the canonical error message.
	EvidenceValidation string `json:"evidence_validation"`
}

// ExplanationPlaybook is the explanation_playbook.json document.
type ExplanationPlaybook struct {
	Explanations map[string]ExplanationRule `json:"explanations"`
}

// EvidenceDisplayRule controls how a reason's evidence is rendered.
type EvidenceDisplayRule struct {
	HasEvidence    bool     `json:"has_evidence"`
	DisplayLines   []string `json:"display_lines,omitempty"`
	RequiredFields []string `json:"required_fields,omitempty"`
	FormatTemplate []string `json:"format_template,omitempty"`
	MissingError   string   `json:"missing_error,omitempty"`
}

// EvidenceDisplayRules is the evidence_display_rules.json document.
type EvidenceDisplayRules struct {
	DisplayRules map[string]EvidenceDisplayRule `json:"display_rules"`
}
