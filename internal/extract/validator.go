package extract

import (
	"context"

	"github.com/Mutisya18/organic-fishstick-RAG/internal/domain"
)

// AccountValidator enforces the account-number format contract.
type AccountValidator struct {
	logger domain.AuditLogger
}

// NewAccountValidator creates a validator reporting to logger.
func NewAccountValidator(logger domain.AuditLogger) *AccountValidator {
	return &AccountValidator{logger: logger}
}

// Validate partitions accounts into valid and invalid, preserving input
// order within each slice. Nil or empty input yields two empty slices.
func (v *AccountValidator) Validate(ctx context.Context, requestID string, accounts []string) (valid []string, invalid []string) {
	valid = []string{}
	invalid = []string{}

	for _, account := range accounts {
		if IsValidAccount(account) {
			valid = append(valid, account)
		} else {
			invalid = append(invalid, account)
		}
	}

	v.logger.Log(ctx, requestID, "account_validation", domain.SeverityDebug,
		"Account validation completed",
		map[string]any{
			"valid_count":   len(valid),
			"invalid_count": len(invalid),
			"total_count":   len(accounts),
		})

	return valid, invalid
}

// IsValidAccount reports whether account is exactly ten ASCII digits.
func IsValidAccount(account string) bool {
	if len(account) != 10 {
		return false
	}
	for i := 0; i < len(account); i++ {
		if account[i] < '0' || account[i] > '9' {
			return false
		}
	}
	return true
}
