package ledger

import "math/big"

// BuyInvestment withdraws amount from buyer and locks it in a new investment
// under the current next id. On failure no investment is created and the id
// counter does not move.
func (s *State) BuyInvestment(buyer string, amount Amount) (InvestmentID, error) {
	after, err := s.debit(buyer, amount)
	if err != nil {
		return 0, err
	}
	ids := s.ids
	id, err := ids.Allocate()
	if err != nil {
		return 0, err
	}

	s.balances[buyer] = after
	s.investments[id] = Investment{Owner: buyer, Amount: amount}
	s.ids = ids
	return id, nil
}

// SellInvestment closes investment id and credits its amount back to seller,
// who must own it. The id is retired for good.
func (s *State) SellInvestment(seller string, id InvestmentID) error {
	inv, ok := s.investments[id]
	if !ok {
		return ErrInvestmentNotFound
	}
	if inv.Owner != seller {
		return ErrNotOwner
	}
	next, err := s.credit(seller, s.balances[seller], inv.Amount)
	if err != nil {
		return err
	}

	delete(s.investments, id)
	s.balances[seller] = next
	return nil
}

// SellInvestmentBig is SellInvestment for an id of any size. Ids outside the
// id space are never allocated, so they are reported as not found.
func (s *State) SellInvestmentBig(seller string, id *big.Int) error {
	n, ok := InvestmentIDFromBig(id)
	if !ok {
		return ErrInvestmentNotFound
	}
	return s.SellInvestment(seller, n)
}
