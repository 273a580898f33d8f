package reason

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Mutisya18/organic-fishstick-RAG/internal/audit"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/config"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/data"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/domain"
)

const checksCatalogJSON = `{
	"columns": ["Joint_Account", "Guarantor_Flag", "Arrears_Days", "Credit_Card_OD_Days", "DPD_Days"],
	"normalization_rules": {
		"blank_string_values": ["", " ", "N/A"],
		"convert_blanks_to_zero_for_numeric_fields": ["Arrears_Days", "Credit_Card_OD_Days", "DPD_Days"]
	}
}`

const reasonDetectionRulesJSON = `{
	"reasons": [
		{
			"reason_code": "JOINT_ACCOUNT_EXCLUSION",
			"trigger": {"type": "check_equals", "check_column": "Joint_Account", "trigger_value": "Y"},
			"facts_builder": {"type": "simple", "facts": ["Account is jointly held"]}
		},
		{
			"reason_code": "DELINQUENCY",
			"trigger": {"type": "expression", "expression": "double(row[\"DPD_Days\"]) > 30.0"},
			"facts_builder": {
				"type": "max_of_numeric_fields_with_evidence",
				"fields": ["Arrears_Days", "Credit_Card_OD_Days", "DPD_Days"],
				"fact_templates": ["Worst delinquency is {max_dpd_driver} days via {driver_source}"]
			}
		},
		{
			"reason_code": "GUARANTOR_BLOCK",
			"trigger": {"type": "check_special_equals", "check_column": "Guarantor_Flag", "trigger_value": "BLOCK"},
			"facts_builder": {
				"type": "simple_with_evidence",
				"fact_templates": ["Guarantor flag is {guarantor_flag}"]
			},
			"evidence_columns": ["Guarantor_Flag"],
			"required_facts": ["guarantor_flag"]
		}
	]
}`

const reasonPlaybookJSON = `{
	"reason_playbook": {
		"JOINT_ACCOUNT_EXCLUSION": {
			"meaning": "Joint accounts are excluded from limit allocation",
			"next_steps": [{"action": "Confirm account holding type", "owner": "branch"}],
			"review_type": "manual",
			"review_timing": "next business day",
			"constraints": ["Requires both holders present"]
		},
		"DELINQUENCY": {
			"meaning": "Account has past-due history",
			"next_steps": [],
			"review_type": "automatic",
			"review_timing": "after repayment",
			"constraints": []
		},
		"GUARANTOR_BLOCK": {
			"meaning": "Account blocked pending guarantor review",
			"next_steps": [],
			"review_type": "manual",
			"review_timing": "on request",
			"constraints": []
		}
	}
}`

const explanationPlaybookJSON = `{
	"explanations": {
		"DELINQUENCY": {
			"required_facts": ["max_dpd_driver", "driver_source"],
			"evidence_validation": "if max_dpd_driver missing then output: 'Cannot confirm delinquency days.'"
		},
		"GUARANTOR_BLOCK": {
			"required_facts": ["guarantor_name"],
			"evidence_validation": "guarantor_name must be present else output: 'Missing guarantor name.'"
		}
	}
}`

const evidenceDisplayRulesJSON = `{
	"display_rules": {
		"JOINT_ACCOUNT_EXCLUSION": {
			"has_evidence": false,
			"display_lines": ["Evidence: account flagged as jointly held"]
		},
		"DELINQUENCY": {
			"has_evidence": true,
			"required_fields": ["max_dpd_driver", "driver_source"],
			"format_template": ["Worst delinquency: {max_dpd_driver} days ({driver_source})"]
		},
		"GUARANTOR_BLOCK": {
			"has_evidence": true,
			"required_fields": ["guarantor_name"],
			"missing_error": "Guarantor evidence missing"
		}
	}
}`

const eligibleCSV = `ACCOUNTNO,CUSTOMERNAMES
1234567890,ALICE WANJIKU
5555555555,BOB OTIENO
`

const reasonsCSV = `account_number,CUSTOMERNAMES,Joint_Account,Guarantor_Flag,Arrears_Days,Credit_Card_OD_Days,DPD_Days
9999999999,CAROL MUTHONI,Y,, , ,
7777777777,DAVID KIPROTICH,N,,10,5,45
6666666666,EVE ACHIENG,N,BLOCK,0,0,0
5555555555,BOB OTIENO,Y,,0,0,0
`

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	dir := t.TempDir()

	configDocs := map[string]string{
		config.ChecksCatalogFile:        checksCatalogJSON,
		config.ReasonDetectionRulesFile: reasonDetectionRulesJSON,
		config.ReasonPlaybookFile:       reasonPlaybookJSON,
		config.ExplanationPlaybookFile:  explanationPlaybookJSON,
		config.EvidenceDisplayRulesFile: evidenceDisplayRulesJSON,
	}
	for name, content := range configDocs {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "eligible.csv"), []byte(eligibleCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "reasons.csv"), []byte(reasonsCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	logger := audit.NewSlogLogger(nil)

	cfgStore, err := config.NewStore(dir, logger)
	if err != nil {
		t.Fatalf("failed to load config fixtures: %v", err)
	}

	dataStore, err := data.NewStore(domain.DataConfig{
		Driver:             "csv",
		EligiblePath:       filepath.Join(dir, "eligible.csv"),
		ReasonsPath:        filepath.Join(dir, "reasons.csv"),
		EligibleKeyColumn:  "ACCOUNTNO",
		ReasonsKeyColumn:   "account_number",
		CustomerNameColumn: "CUSTOMERNAMES",
	}, logger)
	if err != nil {
		t.Fatalf("failed to load data fixtures: %v", err)
	}

	engine, err := NewEngine(cfgStore, dataStore, logger)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return engine
}

func TestEvaluateEligibleAccount(t *testing.T) {
	engine := newTestEngine(t)

	result := engine.Evaluate(context.Background(), "req-1", "1234567890")
	if result.Status != domain.StatusEligible {
		t.Fatalf("expected ELIGIBLE, got %s", result.Status)
	}
	if len(result.Reasons) != 0 {
		t.Errorf("eligible account should carry no reasons, got %d", len(result.Reasons))
	}
	if result.AccountNumberHash == "" {
		t.Error("expected account hash")
	}
	if result.AccountNumberHash == result.AccountNumber {
		t.Error("hash must not equal the raw account number")
	}
}

func TestEvaluateUnknownAccount(t *testing.T) {
	engine := newTestEngine(t)

	result := engine.Evaluate(context.Background(), "req-1", "0000000000")
	if result.Status != domain.StatusCannotConfirm {
		t.Fatalf("expected CANNOT_CONFIRM, got %s", result.Status)
	}
	if len(result.Reasons) != 0 {
		t.Errorf("expected no reasons, got %d", len(result.Reasons))
	}
}

func TestEligiblePrecedence(t *testing.T) {
	engine := newTestEngine(t)

	// 5555555555 is in both sources; eligible wins.
	result := engine.Evaluate(context.Background(), "req-1", "5555555555")
	if result.Status != domain.StatusEligible {
		t.Fatalf("expected ELIGIBLE for account in both sources, got %s", result.Status)
	}
}

func TestJointAccountReason(t *testing.T) {
	engine := newTestEngine(t)

	result := engine.Evaluate(context.Background(), "req-1", "9999999999")
	if result.Status != domain.StatusNotEligible {
		t.Fatalf("expected NOT_ELIGIBLE, got %s", result.Status)
	}
	if result.CustomerName != "CAROL MUTHONI" {
		t.Errorf("expected customer name from record, got %q", result.CustomerName)
	}
	if len(result.Reasons) != 1 {
		t.Fatalf("expected 1 reason, got %d", len(result.Reasons))
	}

	reason := result.Reasons[0]
	if reason.Code != "JOINT_ACCOUNT_EXCLUSION" {
		t.Fatalf("expected JOINT_ACCOUNT_EXCLUSION, got %s", reason.Code)
	}
	if reason.Meaning != "Joint accounts are excluded from limit allocation" {
		t.Errorf("playbook meaning not attached: %q", reason.Meaning)
	}
	if len(reason.NextSteps) != 1 || reason.NextSteps[0].Owner != "branch" {
		t.Errorf("playbook next steps not attached: %v", reason.NextSteps)
	}
	// No required facts configured, so the reason is ready.
	if reason.ExplanationStatus != domain.ExplanationReady {
		t.Errorf("expected ready, got %s", reason.ExplanationStatus)
	}
	if reason.ValidationStatus != domain.ValidationPassed {
		t.Errorf("expected passed, got %s", reason.ValidationStatus)
	}
	if len(reason.EvidenceDisplay) != 1 || reason.EvidenceDisplay[0] != "Evidence: account flagged as jointly held" {
		t.Errorf("unexpected evidence display %v", reason.EvidenceDisplay)
	}
}

func TestExpressionTriggerWithMaxEvidence(t *testing.T) {
	engine := newTestEngine(t)

	result := engine.Evaluate(context.Background(), "req-1", "7777777777")
	if result.Status != domain.StatusNotEligible {
		t.Fatalf("expected NOT_ELIGIBLE, got %s", result.Status)
	}
	if len(result.Reasons) != 1 {
		t.Fatalf("expected 1 reason, got %d", len(result.Reasons))
	}

	reason := result.Reasons[0]
	if reason.Code != "DELINQUENCY" {
		t.Fatalf("expected DELINQUENCY, got %s", reason.Code)
	}

	if got := reason.Evidence["max_dpd_driver"]; got != 45 {
		t.Errorf("expected max_dpd_driver=45, got %v", got)
	}
	if got := reason.Evidence["driver_source"]; got != "DPD_Days" {
		t.Errorf("expected driver_source=DPD_Days, got %v", got)
	}
	if got := reason.Evidence["arrears_days"]; got != 10 {
		t.Errorf("expected arrears_days=10, got %v", got)
	}

	if len(reason.Facts) != 1 || reason.Facts[0] != "Worst delinquency is 45 days via DPD_Days" {
		t.Errorf("unexpected facts %v", reason.Facts)
	}

	// Both required facts present, so the reason passes gating.
	if reason.ExplanationStatus != domain.ExplanationReady {
		t.Errorf("expected ready, got %s (missing %v)", reason.ExplanationStatus, reason.MissingFacts)
	}
	if len(reason.EvidenceDisplay) != 1 || reason.EvidenceDisplay[0] != "Worst delinquency: 45 days (DPD_Days)" {
		t.Errorf("unexpected evidence display %v", reason.EvidenceDisplay)
	}
}

func TestGatingBlocksMissingEvidence(t *testing.T) {
	engine := newTestEngine(t)

	result := engine.Evaluate(context.Background(), "req-1", "6666666666")
	if len(result.Reasons) != 1 {
		t.Fatalf("expected 1 reason, got %d", len(result.Reasons))
	}

	reason := result.Reasons[0]
	if reason.Code != "GUARANTOR_BLOCK" {
		t.Fatalf("expected GUARANTOR_BLOCK, got %s", reason.Code)
	}
	if reason.ValidationStatus != domain.ValidationFailed {
		t.Errorf("expected failed validation, got %s", reason.ValidationStatus)
	}
	if reason.ExplanationStatus != domain.ExplanationBlocked {
		t.Errorf("expected blocked, got %s", reason.ExplanationStatus)
	}
	if len(reason.MissingFacts) != 1 || reason.MissingFacts[0] != "guarantor_name" {
		t.Errorf("expected missing guarantor_name, got %v", reason.MissingFacts)
	}
	// The error comes from the "output: " clause of the validation text.
	if reason.ExplanationError != "Missing guarantor name." {
		t.Errorf("unexpected explanation error %q", reason.ExplanationError)
	}
	// Display rule requires guarantor_name, absent from the evidence.
	if len(reason.EvidenceDisplay) != 1 || !strings.HasPrefix(reason.EvidenceDisplay[0], "⚠️ ") {
		t.Errorf("expected warning display line, got %v", reason.EvidenceDisplay)
	}
	if reason.EvidenceDisplay[0] != "⚠️ Guarantor evidence missing" {
		t.Errorf("expected configured missing error, got %q", reason.EvidenceDisplay[0])
	}
	// The facts still substitute the evidence that is present.
	if len(reason.Facts) != 1 || reason.Facts[0] != "Guarantor flag is BLOCK" {
		t.Errorf("unexpected facts %v", reason.Facts)
	}
}

func TestProcessAccountsPreservesOrder(t *testing.T) {
	engine := newTestEngine(t)

	accounts := []string{"9999999999", "1234567890", "0000000000"}
	results := engine.ProcessAccounts(context.Background(), "req-1", accounts)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	wantStatus := []string{domain.StatusNotEligible, domain.StatusEligible, domain.StatusCannotConfirm}
	for i, want := range wantStatus {
		if results[i].Status != want {
			t.Errorf("result %d: expected %s, got %s", i, want, results[i].Status)
		}
		if results[i].AccountNumber != accounts[i] {
			t.Errorf("result %d out of order: %s", i, results[i].AccountNumber)
		}
	}
}

func TestProcessAccountsEmpty(t *testing.T) {
	engine := newTestEngine(t)

	results := engine.ProcessAccounts(context.Background(), "req-1", nil)
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil results, got %v", results)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	first := engine.Evaluate(ctx, "req-1", "7777777777")
	second := engine.Evaluate(ctx, "req-2", "7777777777")

	if first.Status != second.Status {
		t.Errorf("status differs between runs: %s vs %s", first.Status, second.Status)
	}
	if len(first.Reasons) != len(second.Reasons) {
		t.Fatalf("reason counts differ: %d vs %d", len(first.Reasons), len(second.Reasons))
	}
	for i := range first.Reasons {
		if first.Reasons[i].Code != second.Reasons[i].Code {
			t.Errorf("reason %d differs: %s vs %s", i, first.Reasons[i].Code, second.Reasons[i].Code)
		}
	}
}

func TestNormalization(t *testing.T) {
	engine := newTestEngine(t)

	record := domain.Record{
		"Joint_Account": "N/A",
		"Arrears_Days":  " ",
		"DPD_Days":      "12",
		"Other":         "keep",
	}

	normalized := engine.normalizeRecord(record)
	if normalized["Joint_Account"] != "" {
		t.Errorf("blank sentinel should normalize to empty, got %q", normalized["Joint_Account"])
	}
	if normalized["Arrears_Days"] != "0" {
		t.Errorf("blank numeric should normalize to 0, got %q", normalized["Arrears_Days"])
	}
	if normalized["DPD_Days"] != "12" {
		t.Errorf("non-blank numeric should be unchanged, got %q", normalized["DPD_Days"])
	}
	if normalized["Other"] != "keep" {
		t.Errorf("unrelated column should be unchanged, got %q", normalized["Other"])
	}
}

func TestBuildMaxLegacy(t *testing.T) {
	def := domain.ReasonDefinition{
		ReasonCode: "X",
		FactsBuilder: domain.FactsBuilder{
			Kind:          domain.BuilderMaxLegacy,
			Fields:        []string{"A", "B"},
			FactTemplates: []string{"max is {max_value} from {max_field}"},
		},
	}

	facts := buildMaxLegacy(def, domain.Record{"A": "3", "B": "7"})
	if len(facts) != 1 || facts[0] != "max is 7 from B" {
		t.Errorf("unexpected facts %v", facts)
	}

	// All-zero fields leave the driving field empty.
	facts = buildMaxLegacy(def, domain.Record{"A": "0", "B": "garbage"})
	if facts[0] != "max is 0 from " {
		t.Errorf("unexpected facts for zero max: %v", facts)
	}
}

func TestBuildSimpleWithParameters(t *testing.T) {
	def := domain.ReasonDefinition{
		ReasonCode: "X",
		FactsBuilder: domain.FactsBuilder{
			Kind:          domain.BuilderSimpleWithParameters,
			FactTemplates: []string{"branch is {Branch}", "untouched {missing}"},
		},
	}

	facts := buildSimpleWithParameters(def, domain.Record{"Branch": "Nairobi"})
	if facts[0] != "branch is Nairobi" {
		t.Errorf("unexpected fact %q", facts[0])
	}
	// Placeholders with no matching column stay literal.
	if facts[1] != "untouched {missing}" {
		t.Errorf("unexpected fact %q", facts[1])
	}
}
