// Package reason implements per-account status determination and
// rule-driven reason extraction.
package reason

import (
	"context"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/Mutisya18/organic-fishstick-RAG/internal/audit"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/config"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/data"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/domain"
)

// unknownCustomer is reported when no customer name is on record.
const unknownCustomer = "Unknown"

// Engine evaluates validated account numbers against the loaded rule
// configuration and data sources. Construction compiles expression
// triggers; after that the engine is read-only and safe for concurrent
// use.
type Engine struct {
	rules         []compiledReason
	normalization domain.NormalizationRules
	playbook      map[string]domain.PlaybookEntry
	explanations  map[string]domain.ExplanationRule
	displayRules  map[string]domain.EvidenceDisplayRule

	data   *data.Store
	logger domain.AuditLogger
}

// compiledReason pairs a reason definition with its pre-compiled CEL
// program when the trigger kind is expression.
type compiledReason struct {
	def     domain.ReasonDefinition
	program cel.Program
}

// NewEngine builds an engine from the loaded stores. Expression
// triggers are compiled here; a compile failure is a startup failure,
// since the engine must not run on unverified rule data.
func NewEngine(cfgStore *config.Store, dataStore *data.Store, logger domain.AuditLogger) (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("row", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	defs := cfgStore.ReasonDetectionRules().Reasons
	rules := make([]compiledReason, 0, len(defs))
	for _, def := range defs {
		compiled := compiledReason{def: def}

		if def.Trigger.Kind == domain.TriggerExpression {
			program, err := compileTrigger(env, def)
			if err != nil {
				return nil, err
			}
			compiled.program = program
		}

		rules = append(rules, compiled)
	}

	normalization := cfgStore.ChecksCatalog().NormalizationRules
	if len(normalization.BlankStringValues) == 0 {
		normalization.BlankStringValues = []string{"", " "}
	}

	return &Engine{
		rules:         rules,
		normalization: normalization,
		playbook:      cfgStore.ReasonPlaybook().Entries,
		explanations:  cfgStore.ExplanationPlaybook().Explanations,
		displayRules:  cfgStore.EvidenceDisplayRules().DisplayRules,
		data:          dataStore,
		logger:        logger,
	}, nil
}

func compileTrigger(env *cel.Env, def domain.ReasonDefinition) (cel.Program, error) {
	ast, issues := env.Compile(def.Trigger.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile trigger for reason %s: %w", def.ReasonCode, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("reason %s: trigger expression must return bool, got %s", def.ReasonCode, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for reason %s: %w", def.ReasonCode, err)
	}

	return program, nil
}

// RulesCount returns the number of loaded reason definitions.
func (e *Engine) RulesCount() int {
	return len(e.rules)
}

// ProcessAccounts evaluates a batch of validated account numbers and
// returns one result per account, in input order.
func (e *Engine) ProcessAccounts(ctx context.Context, requestID string, accounts []string) []domain.AccountResult {
	if len(accounts) == 0 {
		e.logger.Log(ctx, requestID, "eligibility_processing", domain.SeverityWarning,
			"No account numbers provided for processing",
			map[string]any{"account_count": 0})
		return []domain.AccountResult{}
	}

	start := time.Now()

	e.logger.Log(ctx, requestID, "eligibility_processing_start", domain.SeverityInfo,
		fmt.Sprintf("Processing %d account(s)", len(accounts)),
		map[string]any{"account_count": len(accounts)})

	results := make([]domain.AccountResult, 0, len(accounts))
	counts := map[string]int{}

	for _, account := range accounts {
		accountStart := time.Now()
		result := e.Evaluate(ctx, requestID, account)
		results = append(results, result)
		counts[result.Status]++

		e.logger.Log(ctx, requestID, "account_processed", domain.SeverityDebug,
			"Account processed: "+result.Status,
			map[string]any{
				"account_hash": result.AccountNumberHash,
				"status":       result.Status,
				"reason_count": len(result.Reasons),
				"latency_ms":   float64(time.Since(accountStart).Microseconds()) / 1000.0,
			})
	}

	e.logger.Log(ctx, requestID, "eligibility_processing_complete", domain.SeverityInfo,
		"Eligibility processing completed",
		map[string]any{
			"total_accounts":       len(accounts),
			"eligible_count":       counts[domain.StatusEligible],
			"not_eligible_count":   counts[domain.StatusNotEligible],
			"cannot_confirm_count": counts[domain.StatusCannotConfirm],
			"latency_ms":           float64(time.Since(start).Microseconds()) / 1000.0,
		})

	return results
}

// Evaluate determines the status of a single account. The eligible
// index is checked first, so it takes precedence when an identifier
// appears in both sources.
func (e *Engine) Evaluate(ctx context.Context, requestID, accountNumber string) domain.AccountResult {
	accountHash := audit.HashText(accountNumber)

	if e.data.IsEligible(accountNumber) {
		return domain.AccountResult{
			AccountNumber:     accountNumber,
			AccountNumberHash: accountHash,
			CustomerName:      unknownCustomer,
			Status:            domain.StatusEligible,
			Reasons:           []domain.Reason{},
		}
	}

	if record := e.data.ReasonsRecord(accountNumber); record != nil {
		return e.extractReasons(ctx, requestID, accountNumber, accountHash, record)
	}

	return domain.AccountResult{
		AccountNumber:     accountNumber,
		AccountNumberHash: accountHash,
		CustomerName:      unknownCustomer,
		Status:            domain.StatusCannotConfirm,
		Reasons:           []domain.Reason{},
	}
}

func (e *Engine) extractReasons(ctx context.Context, requestID, accountNumber, accountHash string, record domain.Record) domain.AccountResult {
	normalized := e.normalizeRecord(record)

	var extracted []domain.Reason
	for _, rule := range e.rules {
		if !e.checkTrigger(ctx, requestID, rule, normalized) {
			continue
		}

		facts, evidence := e.buildFacts(rule.def, normalized)

		entry := e.playbook[rule.def.ReasonCode]

		reason := domain.Reason{
			Code:            rule.def.ReasonCode,
			Meaning:         entry.Meaning,
			Facts:           facts,
			Evidence:        evidence,
			NextSteps:       entry.NextSteps,
			ReviewType:      entry.ReviewType,
			ReviewTiming:    entry.ReviewTiming,
			Constraints:     entry.Constraints,
			EvidenceDisplay: e.BuildEvidenceDisplay(ctx, requestID, rule.def.ReasonCode, evidence),
		}
		extracted = append(extracted, reason)

		e.logger.Log(ctx, requestID, "reason_extracted", domain.SeverityDebug,
			"Reason extracted: "+rule.def.ReasonCode,
			map[string]any{
				"reason_code": rule.def.ReasonCode,
				"fact_count":  len(facts),
			})
	}

	customerName := record[e.data.CustomerNameColumn()]
	if customerName == "" {
		customerName = unknownCustomer
	}

	if extracted == nil {
		extracted = []domain.Reason{}
	}

	return domain.AccountResult{
		AccountNumber:     accountNumber,
		AccountNumberHash: accountHash,
		CustomerName:      customerName,
		Status:            domain.StatusNotEligible,
		Reasons:           e.ValidateAndEnrich(ctx, requestID, extracted),
	}
}

// normalizeRecord replaces configured blank sentinel values with the
// empty string, then with "0" for the configured numeric columns.
func (e *Engine) normalizeRecord(record domain.Record) domain.Record {
	normalized := make(domain.Record, len(record))
	for key, value := range record {
		for _, blank := range e.normalization.BlankStringValues {
			if value == blank {
				value = ""
				break
			}
		}
		normalized[key] = value
	}

	for _, field := range e.normalization.NumericBlankToZero {
		if value, ok := normalized[field]; ok && value == "" {
			normalized[field] = "0"
		}
	}

	return normalized
}

// checkTrigger evaluates one reason trigger against the normalized
// record. Unknown kinds never fire; an expression evaluation error is
// logged and treated as not triggered, never raised.
func (e *Engine) checkTrigger(ctx context.Context, requestID string, rule compiledReason, normalized domain.Record) bool {
	switch rule.def.Trigger.Kind {
	case domain.TriggerCheckEquals, domain.TriggerCheckSpecialEquals:
		return normalized[rule.def.Trigger.CheckColumn] == rule.def.Trigger.TriggerValue

	case domain.TriggerExpression:
		row := make(map[string]any, len(normalized))
		for k, v := range normalized {
			row[k] = v
		}

		out, _, err := rule.program.Eval(map[string]any{"row": row})
		if err != nil {
			e.logger.Log(ctx, requestID, "trigger_evaluation_error", domain.SeverityWarning,
				"Trigger expression evaluation failed",
				map[string]any{"reason_code": rule.def.ReasonCode, "error": err.Error()})
			return false
		}

		result, ok := out.(types.Bool)
		return ok && bool(result)

	default:
		return false
	}
}
