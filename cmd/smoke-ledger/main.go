package main

import (
	"errors"
	"fmt"
	"log"

	"qazna.org/bankmbt/internal/ledger"
)

func amt(n int64) ledger.Amount { return ledger.NewAmount(n) }

func restore(balances map[string]int64, investments map[ledger.InvestmentID]ledger.Investment, nextID ledger.InvestmentID) *ledger.State {
	b := make(map[string]ledger.Amount, len(balances))
	for acc, n := range balances {
		b[acc] = amt(n)
	}
	s, err := ledger.Restore(b, investments, nextID)
	if err != nil {
		log.Fatalf("restore: %v", err)
	}
	return s
}

func expectBalance(step string, s *ledger.State, account string, want int64) {
	got, ok := s.Balance(account)
	if !ok || !got.Equal(amt(want)) {
		log.Fatalf("%s: balance of %s = %s (present=%v), want %d", step, account, got, ok, want)
	}
}

func expectUnchanged(step string, before, after *ledger.State) {
	if !before.Equal(after) {
		log.Fatalf("%s: failed operation changed the ledger", step)
	}
}

func main() {
	// 1. deposit into an empty ledger
	s := ledger.New()
	if err := s.Deposit("alice", amt(100)); err != nil {
		log.Fatalf("deposit: %v", err)
	}
	expectBalance("deposit", s, "alice", 100)

	// 2. overdraw
	s = restore(map[string]int64{"alice": 100}, nil, 0)
	before := s.Clone()
	if err := s.Withdraw("alice", amt(150)); !errors.Is(err, ledger.ErrInsufficientFunds) {
		log.Fatalf("withdraw: got %v, want %v", err, ledger.ErrInsufficientFunds)
	}
	expectUnchanged("withdraw", before, s)

	// 3. transfer
	s = restore(map[string]int64{"alice": 100, "bob": 0}, nil, 0)
	if err := s.Transfer("alice", "bob", amt(40)); err != nil {
		log.Fatalf("transfer: %v", err)
	}
	expectBalance("transfer", s, "alice", 60)
	expectBalance("transfer", s, "bob", 40)
	if !s.Total().Equal(amt(100)) {
		log.Fatalf("transfer: total %s, want 100", s.Total())
	}

	// 4. buy
	s = restore(map[string]int64{"alice": 100}, nil, 1)
	id, err := s.BuyInvestment("alice", amt(50))
	if err != nil {
		log.Fatalf("buy: %v", err)
	}
	expectBalance("buy", s, "alice", 50)
	if inv, ok := s.Investment(id); id != 1 || !ok || inv.Owner != "alice" || !inv.Amount.Equal(amt(50)) {
		log.Fatalf("buy: investment %d = %+v (present=%v)", id, inv, ok)
	}
	if s.NextID() != 2 {
		log.Fatalf("buy: next id %d, want 2", s.NextID())
	}

	// 5. sell by the owner
	held := map[ledger.InvestmentID]ledger.Investment{1: {Owner: "alice", Amount: amt(50)}}
	s = restore(map[string]int64{"alice": 50}, held, 2)
	if err := s.SellInvestment("alice", 1); err != nil {
		log.Fatalf("sell: %v", err)
	}
	expectBalance("sell", s, "alice", 100)
	if len(s.InvestmentIDs()) != 0 {
		log.Fatalf("sell: investments left: %v", s.InvestmentIDs())
	}

	// 6. sell by someone else
	s = restore(map[string]int64{"alice": 50}, held, 2)
	before = s.Clone()
	if err := s.SellInvestment("bob", 1); !errors.Is(err, ledger.ErrNotOwner) {
		log.Fatalf("foreign sell: got %v, want %v", err, ledger.ErrNotOwner)
	}
	expectUnchanged("foreign sell", before, s)

	fmt.Println("✅ ledger smoke test passed: 6 scenarios")
}
