package reason

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Mutisya18/organic-fishstick-RAG/internal/domain"
)

// buildFacts constructs the facts and evidence for a triggered reason
// according to its builder kind. Unknown kinds yield empty facts and
// evidence, never an error.
func (e *Engine) buildFacts(def domain.ReasonDefinition, normalized domain.Record) ([]string, map[string]any) {
	switch def.FactsBuilder.Kind {
	case domain.BuilderSimple:
		facts := def.FactsBuilder.Facts
		if facts == nil {
			facts = []string{}
		}
		return facts, map[string]any{}

	case domain.BuilderSimpleWithEvidence:
		return buildSimpleWithEvidence(def, normalized)

	case domain.BuilderSimpleWithParameters:
		return buildSimpleWithParameters(def, normalized), map[string]any{}

	case domain.BuilderMaxWithEvidence:
		return buildMaxWithEvidence(def, normalized)

	case domain.BuilderMaxLegacy:
		return buildMaxLegacy(def, normalized), map[string]any{}

	default:
		return []string{}, map[string]any{}
	}
}

// buildSimpleWithEvidence selects the configured evidence columns into
// a lower-cased evidence map, then fills the fact templates first from
// that map, then from the record columns. Evidence-key substitution
// takes precedence when a required-fact name and a column share a
// placeholder token.
func buildSimpleWithEvidence(def domain.ReasonDefinition, normalized domain.Record) ([]string, map[string]any) {
	evidence := make(map[string]any, len(def.EvidenceColumns))
	for _, col := range def.EvidenceColumns {
		if value, ok := normalized[col]; ok {
			evidence[strings.ToLower(col)] = value
		}
	}

	facts := make([]string, 0, len(def.FactsBuilder.FactTemplates))
	for _, template := range def.FactsBuilder.FactTemplates {
		fact := template
		for _, required := range def.RequiredFacts {
			if value, ok := evidence[required]; ok {
				fact = substitute(fact, required, value)
			}
		}
		for col, value := range normalized {
			fact = substitute(fact, col, value)
		}
		facts = append(facts, fact)
	}

	return facts, evidence
}

// buildSimpleWithParameters fills the fact templates directly from the
// normalized columns. No evidence map is produced; this is the legacy
// compatibility path.
func buildSimpleWithParameters(def domain.ReasonDefinition, normalized domain.Record) []string {
	facts := make([]string, 0, len(def.FactsBuilder.FactTemplates))
	for _, template := range def.FactsBuilder.FactTemplates {
		fact := template
		for col, value := range normalized {
			fact = substitute(fact, col, value)
		}
		facts = append(facts, fact)
	}
	return facts
}

// buildMaxWithEvidence computes the maximum of the configured numeric
// fields, coercing non-numeric and blank values to 0, and produces a
// fixed-shape evidence map naming the three delinquency drivers plus
// which one drove the maximum.
func buildMaxWithEvidence(def domain.ReasonDefinition, normalized domain.Record) ([]string, map[string]any) {
	maxValue, maxField, fieldValues := maxOfFields(def.FactsBuilder.Fields, normalized)

	evidence := map[string]any{
		"arrears_days":        int(fieldValues["Arrears_Days"]),
		"credit_card_od_days": int(fieldValues["Credit_Card_OD_Days"]),
		"dpd_days":            int(fieldValues["DPD_Days"]),
		"max_dpd_driver":      int(maxValue),
		"driver_source":       maxField,
	}

	facts := make([]string, 0, len(def.FactsBuilder.FactTemplates))
	for _, template := range def.FactsBuilder.FactTemplates {
		fact := template
		for key, value := range evidence {
			fact = substitute(fact, key, value)
		}
		facts = append(facts, fact)
	}

	return facts, evidence
}

// buildMaxLegacy runs the same max computation but substitutes only
// {max_value} and {max_field}, with no evidence map.
func buildMaxLegacy(def domain.ReasonDefinition, normalized domain.Record) []string {
	maxValue, maxField, _ := maxOfFields(def.FactsBuilder.Fields, normalized)

	facts := make([]string, 0, len(def.FactsBuilder.FactTemplates))
	for _, template := range def.FactsBuilder.FactTemplates {
		fact := substitute(template, "max_value", formatNumber(maxValue))
		fact = substitute(fact, "max_field", maxField)
		facts = append(facts, fact)
	}
	return facts
}

// maxOfFields parses each configured field as a number (blank or
// unparseable coerces to 0) and returns the maximum, the first field
// that produced it (empty when the maximum is 0), and all parsed values.
func maxOfFields(fields []string, normalized domain.Record) (float64, string, map[string]float64) {
	values := make(map[string]float64, len(fields))

	maxValue := 0.0
	maxField := ""
	for _, field := range fields {
		value, err := strconv.ParseFloat(normalized[field], 64)
		if err != nil {
			value = 0
		}
		values[field] = value

		if value > maxValue {
			maxValue = value
			maxField = field
		}
	}

	return maxValue, maxField, values
}

// substitute replaces every {key} placeholder in template with value.
func substitute(template, key string, value any) string {
	return strings.ReplaceAll(template, "{"+key+"}", stringify(value))
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return formatNumber(v)
	default:
		return fmt.Sprint(v)
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
