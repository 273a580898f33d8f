// Package config loads and validates the five rule-configuration
// documents that drive eligibility determination.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Mutisya18/organic-fishstick-RAG/internal/audit"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/domain"
)

// Document file names, fixed relative to the config directory.
const (
	ChecksCatalogFile        = "checks_catalog.json"
	ReasonDetectionRulesFile = "reason_detection_rules.json"
	ReasonPlaybookFile       = "reason_playbook.json"
	ExplanationPlaybookFile  = "explanation_playbook.json"
	EvidenceDisplayRulesFile = "evidence_display_rules.json"
)

// ConfigurationError is a fatal startup failure: a rule document is
// missing, unreadable, or structurally invalid. The engine must not run
// on unverified rule data, so there is no recovery path.
type ConfigurationError struct {
	File string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %v", e.File, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Store holds the five rule documents, loaded once at construction and
// read-only thereafter. Safe for concurrent reads.
type Store struct {
	checksCatalog        domain.ChecksCatalog
	reasonDetectionRules domain.ReasonDetectionRules
	reasonPlaybook       domain.ReasonPlaybook
	explanationPlaybook  domain.ExplanationPlaybook
	evidenceDisplayRules domain.EvidenceDisplayRules
}

// NewStore loads all five documents from dir, resolves trigger and
// builder kinds, and validates cross-references. Any missing or
// malformed document returns a *ConfigurationError.
func NewStore(dir string, logger domain.AuditLogger) (*Store, error) {
	start := time.Now()
	ctx := context.Background()
	requestID := audit.NewRequestID()

	s := &Store{}

	if err := loadDocument(dir, ChecksCatalogFile, &s.checksCatalog); err != nil {
		logLoadFailure(ctx, logger, requestID, dir, err)
		return nil, err
	}
	if err := loadDocument(dir, ReasonDetectionRulesFile, &s.reasonDetectionRules); err != nil {
		logLoadFailure(ctx, logger, requestID, dir, err)
		return nil, err
	}
	if err := loadDocument(dir, ReasonPlaybookFile, &s.reasonPlaybook); err != nil {
		logLoadFailure(ctx, logger, requestID, dir, err)
		return nil, err
	}
	if err := loadDocument(dir, ExplanationPlaybookFile, &s.explanationPlaybook); err != nil {
		logLoadFailure(ctx, logger, requestID, dir, err)
		return nil, err
	}
	if err := loadDocument(dir, EvidenceDisplayRulesFile, &s.evidenceDisplayRules); err != nil {
		logLoadFailure(ctx, logger, requestID, dir, err)
		return nil, err
	}

	if err := s.resolveKinds(ctx, logger, requestID); err != nil {
		return nil, err
	}
	s.checkCrossReferences(ctx, logger, requestID)

	logger.Log(ctx, requestID, "eligibility_config_load_success", domain.SeverityInfo,
		"Eligibility configs loaded successfully",
		map[string]any{
			"checks_catalog_columns":       len(s.checksCatalog.Columns),
			"reason_detection_rules_count": len(s.reasonDetectionRules.Reasons),
			"reason_playbook_count":        len(s.reasonPlaybook.Entries),
			"explanation_playbook_count":   len(s.explanationPlaybook.Explanations),
			"evidence_display_rules_count": len(s.evidenceDisplayRules.DisplayRules),
			"latency_ms":                   time.Since(start).Milliseconds(),
			"config_dir":                   dir,
		})

	return s, nil
}

// resolveKinds maps the raw trigger/builder type strings onto the
// closed enums. Unknown kinds become inert variants with a load-time
// warning instead of failing, preserving the degrade-don't-crash
// contract for legacy rule documents.
func (s *Store) resolveKinds(ctx context.Context, logger domain.AuditLogger, requestID string) error {
	for i := range s.reasonDetectionRules.Reasons {
		def := &s.reasonDetectionRules.Reasons[i]
		if def.ReasonCode == "" {
			return &ConfigurationError{
				File: ReasonDetectionRulesFile,
				Err:  fmt.Errorf("reason at index %d has no reason_code", i),
			}
		}

		def.Trigger.Kind = domain.ParseTriggerKind(def.Trigger.Type)
		if def.Trigger.Kind == domain.TriggerUnknown {
			logger.Log(ctx, requestID, "unknown_trigger_kind", domain.SeverityWarning,
				"Unknown trigger kind, reason will never fire",
				map[string]any{"reason_code": def.ReasonCode, "trigger_type": def.Trigger.Type})
		}
		if def.Trigger.Kind == domain.TriggerExpression && def.Trigger.Expression == "" {
			return &ConfigurationError{
				File: ReasonDetectionRulesFile,
				Err:  fmt.Errorf("reason %s: expression trigger with empty expression", def.ReasonCode),
			}
		}

		def.FactsBuilder.Kind = domain.ParseBuilderKind(def.FactsBuilder.Type)
		if def.FactsBuilder.Kind == domain.BuilderUnknown {
			logger.Log(ctx, requestID, "unknown_builder_kind", domain.SeverityWarning,
				"Unknown facts builder kind, reason will carry no facts",
				map[string]any{"reason_code": def.ReasonCode, "builder_type": def.FactsBuilder.Type})
		}
	}
	return nil
}

// checkCrossReferences warns about reason codes that lack a playbook or
// display entry. Absence degrades gracefully at evaluation time, so
// these are warnings, not errors.
func (s *Store) checkCrossReferences(ctx context.Context, logger domain.AuditLogger, requestID string) {
	for _, def := range s.reasonDetectionRules.Reasons {
		if _, ok := s.reasonPlaybook.Entries[def.ReasonCode]; !ok {
			logger.Log(ctx, requestID, "playbook_entry_missing", domain.SeverityWarning,
				"Reason code has no playbook entry",
				map[string]any{"reason_code": def.ReasonCode})
		}
		if _, ok := s.evidenceDisplayRules.DisplayRules[def.ReasonCode]; !ok {
			logger.Log(ctx, requestID, "evidence_display_rule_missing", domain.SeverityWarning,
				"Reason code has no evidence display rule",
				map[string]any{"reason_code": def.ReasonCode})
		}
	}
}

// ChecksCatalog returns the cached checks catalog.
func (s *Store) ChecksCatalog() domain.ChecksCatalog { return s.checksCatalog }

// ReasonDetectionRules returns the cached reason detection rules, in
// document order.
func (s *Store) ReasonDetectionRules() domain.ReasonDetectionRules { return s.reasonDetectionRules }

// ReasonPlaybook returns the cached reason playbook.
func (s *Store) ReasonPlaybook() domain.ReasonPlaybook { return s.reasonPlaybook }

// ExplanationPlaybook returns the cached explanation playbook.
func (s *Store) ExplanationPlaybook() domain.ExplanationPlaybook { return s.explanationPlaybook }

// EvidenceDisplayRules returns the cached evidence display rules.
func (s *Store) EvidenceDisplayRules() domain.EvidenceDisplayRules { return s.evidenceDisplayRules }

func loadDocument(dir, file string, out any) error {
	path := filepath.Join(dir, file)

	data, err := os.ReadFile(path)
	if err != nil {
		return &ConfigurationError{File: file, Err: err}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &ConfigurationError{File: file, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	return nil
}

func logLoadFailure(ctx context.Context, logger domain.AuditLogger, requestID, dir string, err error) {
	logger.Log(ctx, requestID, "eligibility_config_load_failure", domain.SeverityCritical,
		"Failed to load eligibility configs",
		map[string]any{"error": err.Error(), "config_dir": dir})
}
