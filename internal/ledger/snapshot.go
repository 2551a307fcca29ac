package ledger

// Snapshot is an ordered, detached copy of a State, suitable for display,
// serialization and structural comparison.
type Snapshot struct {
	Balances    []BalanceEntry    `json:"balances"`
	Investments []InvestmentEntry `json:"investments"`
	NextID      InvestmentID      `json:"next_id"`
}

type BalanceEntry struct {
	Account string `json:"account"`
	Amount  Amount `json:"amount"`
}

type InvestmentEntry struct {
	ID     InvestmentID `json:"id"`
	Owner  string       `json:"owner"`
	Amount Amount       `json:"amount"`
}

// Snapshot lists balances by account name and investments by id.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Balances:    make([]BalanceEntry, 0, len(s.balances)),
		Investments: make([]InvestmentEntry, 0, len(s.investments)),
		NextID:      s.NextID(),
	}
	for _, a := range s.Accounts() {
		snap.Balances = append(snap.Balances, BalanceEntry{Account: a, Amount: s.balances[a]})
	}
	for _, id := range s.InvestmentIDs() {
		inv := s.investments[id]
		snap.Investments = append(snap.Investments, InvestmentEntry{ID: id, Owner: inv.Owner, Amount: inv.Amount})
	}
	return snap
}
