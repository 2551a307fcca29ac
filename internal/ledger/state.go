package ledger

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidState is returned by Restore when a snapshot breaks a ledger invariant.
var ErrInvalidState = errors.New("invalid ledger state")

// State is the whole ledger: balances, open investments and the id counter.
//
// A State has a single writer. Operations validate everything before they
// mutate anything, so a call that returns an error leaves the State exactly
// as it was.
type State struct {
	balances    map[string]Amount
	investments map[InvestmentID]Investment
	ids         IDAllocator

	maxBalance Amount
	bounded    bool
}

// Option configures a State.
type Option func(*State)

// WithMaxBalance rejects any operation that would leave a single balance above max.
func WithMaxBalance(max Amount) Option {
	return func(s *State) {
		s.maxBalance = max
		s.bounded = true
	}
}

// New returns an empty ledger whose first investment id is 0.
func New(opts ...Option) *State {
	s := &State{
		balances:    make(map[string]Amount),
		investments: make(map[InvestmentID]Investment),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore rebuilds a ledger from an external snapshot. The maps are copied.
func Restore(balances map[string]Amount, investments map[InvestmentID]Investment, nextID InvestmentID, opts ...Option) (*State, error) {
	s := New(opts...)
	if nextID < 0 {
		return nil, fmt.Errorf("%w: negative next id %d", ErrInvalidState, nextID)
	}
	s.ids = NewIDAllocator(nextID)
	for account, amt := range balances {
		if account == "" {
			return nil, fmt.Errorf("%w: empty account name", ErrInvalidState)
		}
		if amt.Sign() < 0 {
			return nil, fmt.Errorf("%w: negative balance %s for %q", ErrInvalidState, amt, account)
		}
		if s.checkCeiling(amt) != nil {
			return nil, fmt.Errorf("%w: balance %s for %q above maximum %s", ErrInvalidState, amt, account, s.maxBalance)
		}
		s.balances[account] = amt
	}
	for id, inv := range investments {
		if id < 0 || id >= nextID {
			return nil, fmt.Errorf("%w: investment id %d outside [0, %d)", ErrInvalidState, id, nextID)
		}
		if inv.Owner == "" {
			return nil, fmt.Errorf("%w: investment %d has no owner", ErrInvalidState, id)
		}
		if !inv.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: investment %d has non-positive amount %s", ErrInvalidState, id, inv.Amount)
		}
		s.investments[id] = inv
	}
	return s, nil
}

// Balance returns the balance of account and whether the account exists.
func (s *State) Balance(account string) (Amount, bool) {
	b, ok := s.balances[account]
	return b, ok
}

// Accounts returns every known account in lexicographic order.
func (s *State) Accounts() []string {
	out := make([]string, 0, len(s.balances))
	for a := range s.balances {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

func (s *State) Investment(id InvestmentID) (Investment, bool) {
	inv, ok := s.investments[id]
	return inv, ok
}

// InvestmentIDs returns the open investment ids in ascending order.
func (s *State) InvestmentIDs() []InvestmentID {
	out := make([]InvestmentID, 0, len(s.investments))
	for id := range s.investments {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NextID is the id the next successful BuyInvestment will use.
func (s *State) NextID() InvestmentID { return s.ids.Peek() }

// Total is the sum of every balance and every open investment.
func (s *State) Total() Amount {
	var total Amount
	for _, b := range s.balances {
		total = total.Add(b)
	}
	for _, inv := range s.investments {
		total = total.Add(inv.Amount)
	}
	return total
}

// Clone returns an independent copy. Amounts are immutable so sharing them is safe.
func (s *State) Clone() *State {
	c := &State{
		balances:    make(map[string]Amount, len(s.balances)),
		investments: make(map[InvestmentID]Investment, len(s.investments)),
		ids:         s.ids,
		maxBalance:  s.maxBalance,
		bounded:     s.bounded,
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for k, v := range s.investments {
		c.investments[k] = v
	}
	return c
}

// Equal compares ledger contents; configured limits are not part of the comparison.
func (s *State) Equal(o *State) bool {
	if s.ids != o.ids || len(s.balances) != len(o.balances) || len(s.investments) != len(o.investments) {
		return false
	}
	for k, v := range s.balances {
		ov, ok := o.balances[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	for k, v := range s.investments {
		ov, ok := o.investments[k]
		if !ok || ov.Owner != v.Owner || !ov.Amount.Equal(v.Amount) {
			return false
		}
	}
	return true
}

// --- shared validation ---

func validAmount(amount Amount) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func validAccount(account string) error {
	if account == "" {
		return ErrInvalidAccount
	}
	return nil
}

// requireFunds returns the balance left after taking amount out of account.
func (s *State) requireFunds(account string, amount Amount) (Amount, error) {
	bal, ok := s.balances[account]
	if !ok {
		return Amount{}, ErrUnknownAccount
	}
	if bal.Cmp(amount) < 0 {
		return Amount{}, ErrInsufficientFunds
	}
	return bal.Sub(amount), nil
}

func (s *State) checkCeiling(balance Amount) error {
	if s.bounded && balance.Cmp(s.maxBalance) > 0 {
		return ErrBalanceTooBig
	}
	return nil
}
