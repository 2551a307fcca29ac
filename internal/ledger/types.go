// Package ledger is the in-memory bank ledger: balances, investments and the
// operations that move value between them.
package ledger

import (
	"errors"
)

// InvestmentID identifies an investment for the whole lifetime of a ledger.
type InvestmentID int64

// Investment locks Amount out of Owner's balance until it is sold.
// There is no partial buy or sell, so Amount never changes after creation.
type Investment struct {
	Owner  string `json:"owner"`
	Amount Amount `json:"amount"`
}

// Error texts follow the reference model the conformance traces are generated from.
var (
	ErrInvalidAmount      = errors.New("Amount should be greater than zero")
	ErrInvalidAccount     = errors.New("Account name should not be empty")
	ErrUnknownAccount     = errors.New("Account does not exist")
	ErrInsufficientFunds  = errors.New("Balance is too low")
	ErrBalanceTooBig      = errors.New("Balance would exceed the maximum")
	ErrInvestmentNotFound = errors.New("Investment not found")
	ErrNotOwner           = errors.New("Only the owner can sell the investment")
	ErrIDSpaceExhausted   = errors.New("Investment ids exhausted")
)

// Cause names, stable across releases. Used as keys by anything that needs to
// translate an engine error into different wording.
const (
	CauseInvalidAmount      = "invalid_amount"
	CauseInvalidAccount     = "invalid_account"
	CauseUnknownAccount     = "unknown_account"
	CauseInsufficientFunds  = "insufficient_funds"
	CauseBalanceTooBig      = "balance_too_big"
	CauseInvestmentNotFound = "investment_not_found"
	CauseNotOwner           = "not_owner"
	CauseIDSpaceExhausted   = "id_space_exhausted"
	CauseUnknown            = "unknown"
)

var causes = []struct {
	err  error
	name string
}{
	{ErrInvalidAmount, CauseInvalidAmount},
	{ErrInvalidAccount, CauseInvalidAccount},
	{ErrUnknownAccount, CauseUnknownAccount},
	{ErrInsufficientFunds, CauseInsufficientFunds},
	{ErrBalanceTooBig, CauseBalanceTooBig},
	{ErrInvestmentNotFound, CauseInvestmentNotFound},
	{ErrNotOwner, CauseNotOwner},
	{ErrIDSpaceExhausted, CauseIDSpaceExhausted},
}

// Cause returns the cause name of err, "" for nil and CauseUnknown for errors
// that did not originate in this package.
func Cause(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range causes {
		if errors.Is(err, c.err) {
			return c.name
		}
	}
	return CauseUnknown
}

// Causes lists every cause name the engine can report.
func Causes() []string {
	out := make([]string, 0, len(causes))
	for _, c := range causes {
		out = append(out, c.name)
	}
	return out
}
