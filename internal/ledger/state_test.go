package ledger

import (
	"errors"
	"math"
	"math/big"
	"testing"
)

func amt(n int64) Amount { return NewAmount(n) }

func mustBalance(t *testing.T, s *State, account string, want int64) {
	t.Helper()
	got, ok := s.Balance(account)
	if !ok {
		t.Fatalf("account %q missing", account)
	}
	if !got.Equal(amt(want)) {
		t.Fatalf("balance of %q = %s, want %d", account, got, want)
	}
}

func seeded(t *testing.T, balances map[string]int64) *State {
	t.Helper()
	s := New()
	for a, b := range balances {
		s.balances[a] = amt(b)
	}
	return s
}

func TestDepositCreatesAccount(t *testing.T) {
	s := New()
	if err := s.Deposit("alice", amt(100)); err != nil {
		t.Fatal(err)
	}
	mustBalance(t, s, "alice", 100)
	if err := s.Deposit("alice", amt(5)); err != nil {
		t.Fatal(err)
	}
	mustBalance(t, s, "alice", 105)
}

func TestDepositRejectsNonPositive(t *testing.T) {
	for _, n := range []int64{0, -1, math.MinInt64} {
		s := New()
		if err := s.Deposit("alice", amt(n)); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("deposit %d: expected ErrInvalidAmount, got %v", n, err)
		}
		if _, ok := s.Balance("alice"); ok {
			t.Fatalf("deposit %d created the account", n)
		}
	}
}

func TestDepositRejectsEmptyAccount(t *testing.T) {
	s := New()
	if err := s.Deposit("", amt(1)); !errors.Is(err, ErrInvalidAccount) {
		t.Fatalf("expected ErrInvalidAccount, got %v", err)
	}
}

func TestWithdraw(t *testing.T) {
	s := seeded(t, map[string]int64{"alice": 100})
	if err := s.Withdraw("alice", amt(100)); err != nil {
		t.Fatal(err)
	}
	mustBalance(t, s, "alice", 0)
}

func TestWithdrawFailures(t *testing.T) {
	cases := []struct {
		name    string
		account string
		amount  int64
		want    error
	}{
		{"insufficient", "alice", 150, ErrInsufficientFunds},
		{"unknown", "bob", 1, ErrUnknownAccount},
		{"zero", "alice", 0, ErrInvalidAmount},
		{"negative", "alice", -10, ErrInvalidAmount},
		{"negative on unknown", "bob", -10, ErrInvalidAmount},
		{"empty name", "", 1, ErrInvalidAccount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := seeded(t, map[string]int64{"alice": 100})
			before := s.Clone()
			if err := s.Withdraw(tc.account, amt(tc.amount)); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !s.Equal(before) {
				t.Fatalf("state changed on failure: %+v", s.Snapshot())
			}
		})
	}
}

func TestWithdrawErrorTextsDiffer(t *testing.T) {
	seen := map[string]string{}
	for _, err := range []error{ErrInvalidAmount, ErrUnknownAccount, ErrInsufficientFunds} {
		if prev, ok := seen[err.Error()]; ok {
			t.Fatalf("%q shared by %s and %s", err.Error(), prev, Cause(err))
		}
		seen[err.Error()] = Cause(err)
	}
}

func TestTransferSuccessAndBalance(t *testing.T) {
	s := seeded(t, map[string]int64{"alice": 100, "bob": 0})
	if err := s.Transfer("alice", "bob", amt(40)); err != nil {
		t.Fatal(err)
	}
	mustBalance(t, s, "alice", 60)
	mustBalance(t, s, "bob", 40)
}

func TestTransferCreatesReceiver(t *testing.T) {
	s := seeded(t, map[string]int64{"alice": 100})
	if err := s.Transfer("alice", "carol", amt(1)); err != nil {
		t.Fatal(err)
	}
	mustBalance(t, s, "carol", 1)
}

func TestTransferInsufficientFundsLeavesReceiver(t *testing.T) {
	s := seeded(t, map[string]int64{"alice": 10})
	before := s.Clone()
	if err := s.Transfer("alice", "bob", amt(20)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if _, ok := s.Balance("bob"); ok {
		t.Fatal("receiver was created by a failed transfer")
	}
	if !s.Equal(before) {
		t.Fatal("state changed on failure")
	}
}

func TestSelfTransfer(t *testing.T) {
	s := seeded(t, map[string]int64{"alice": 100})
	if err := s.Transfer("alice", "alice", amt(100)); err != nil {
		t.Fatal(err)
	}
	mustBalance(t, s, "alice", 100)
}

func TestTransferCeilingIsAtomic(t *testing.T) {
	s := New(WithMaxBalance(amt(100)))
	if err := s.Deposit("alice", amt(50)); err != nil {
		t.Fatal(err)
	}
	if err := s.Deposit("bob", amt(90)); err != nil {
		t.Fatal(err)
	}
	before := s.Clone()
	if err := s.Transfer("alice", "bob", amt(20)); !errors.Is(err, ErrBalanceTooBig) {
		t.Fatalf("expected ErrBalanceTooBig, got %v", err)
	}
	if !s.Equal(before) {
		t.Fatal("sender was debited although the deposit leg failed")
	}
	// Self transfers never raise a balance.
	if err := s.Transfer("bob", "bob", amt(90)); err != nil {
		t.Fatal(err)
	}
}

func TestDepositCeiling(t *testing.T) {
	s := New(WithMaxBalance(amt(100)))
	if err := s.Deposit("alice", amt(100)); err != nil {
		t.Fatal(err)
	}
	if err := s.Deposit("alice", amt(1)); !errors.Is(err, ErrBalanceTooBig) {
		t.Fatalf("expected ErrBalanceTooBig, got %v", err)
	}
	mustBalance(t, s, "alice", 100)
}

func TestBuyInvestment(t *testing.T) {
	s, err := Restore(map[string]Amount{"alice": amt(100)}, nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	id, err := s.BuyInvestment("alice", amt(50))
	if err != nil {
		t.Fatal(err)
	}
	if id != 1 || s.NextID() != 2 {
		t.Fatalf("id=%d next=%d, want 1 and 2", id, s.NextID())
	}
	mustBalance(t, s, "alice", 50)
	inv, ok := s.Investment(1)
	if !ok || inv.Owner != "alice" || !inv.Amount.Equal(amt(50)) {
		t.Fatalf("unexpected investment: %+v (found=%v)", inv, ok)
	}
}

func TestBuyInvestmentFailureKeepsNextID(t *testing.T) {
	s := seeded(t, map[string]int64{"alice": 10})
	before := s.Clone()
	if _, err := s.BuyInvestment("alice", amt(11)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if _, err := s.BuyInvestment("alice", amt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := s.BuyInvestment("zed", amt(1)); !errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("expected ErrUnknownAccount, got %v", err)
	}
	if !s.Equal(before) {
		t.Fatal("state changed on failure")
	}
}

func TestBuyInvestmentIDExhausted(t *testing.T) {
	s, err := Restore(map[string]Amount{"alice": amt(10)}, nil, math.MaxInt64)
	if err != nil {
		t.Fatal(err)
	}
	before := s.Clone()
	if _, err := s.BuyInvestment("alice", amt(1)); !errors.Is(err, ErrIDSpaceExhausted) {
		t.Fatalf("expected ErrIDSpaceExhausted, got %v", err)
	}
	if !s.Equal(before) {
		t.Fatal("state changed on failure")
	}
}

func TestSellInvestment(t *testing.T) {
	s, err := Restore(
		map[string]Amount{"alice": amt(50)},
		map[InvestmentID]Investment{1: {Owner: "alice", Amount: amt(50)}},
		2,
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SellInvestment("alice", 1); err != nil {
		t.Fatal(err)
	}
	mustBalance(t, s, "alice", 100)
	if len(s.InvestmentIDs()) != 0 {
		t.Fatalf("investment not removed: %v", s.InvestmentIDs())
	}
	if s.NextID() != 2 {
		t.Fatalf("next id moved to %d", s.NextID())
	}
	if err := s.SellInvestment("alice", 1); !errors.Is(err, ErrInvestmentNotFound) {
		t.Fatalf("second sell: expected ErrInvestmentNotFound, got %v", err)
	}
}

func TestSellInvestmentNotOwner(t *testing.T) {
	s, err := Restore(
		map[string]Amount{"alice": amt(50)},
		map[InvestmentID]Investment{1: {Owner: "alice", Amount: amt(50)}},
		2,
	)
	if err != nil {
		t.Fatal(err)
	}
	before := s.Clone()
	if err := s.SellInvestment("bob", 1); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if !s.Equal(before) {
		t.Fatal("state changed on failure")
	}
	if _, ok := s.Balance("bob"); ok {
		t.Fatal("failed sell created the seller account")
	}
}

func TestSellInvestmentBig(t *testing.T) {
	s, err := Restore(
		map[string]Amount{"alice": amt(50)},
		map[InvestmentID]Investment{1: {Owner: "alice", Amount: amt(50)}},
		2,
	)
	if err != nil {
		t.Fatal(err)
	}
	before := s.Clone()
	wide := new(big.Int).Lsh(big.NewInt(1), 64)
	for _, id := range []*big.Int{wide, new(big.Int).Neg(wide), nil} {
		if err := s.SellInvestmentBig("alice", id); !errors.Is(err, ErrInvestmentNotFound) {
			t.Fatalf("sell %v: expected ErrInvestmentNotFound, got %v", id, err)
		}
	}
	if !s.Equal(before) {
		t.Fatal("state changed on failure")
	}
	if err := s.SellInvestmentBig("bob", big.NewInt(1)); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := s.SellInvestmentBig("alice", big.NewInt(1)); err != nil {
		t.Fatal(err)
	}
	mustBalance(t, s, "alice", 100)
}

func TestSellInvestmentCreditsNewAccount(t *testing.T) {
	// The owner may have no balance entry if the snapshot came from elsewhere.
	s, err := Restore(nil, map[InvestmentID]Investment{0: {Owner: "alice", Amount: amt(7)}}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SellInvestment("alice", 0); err != nil {
		t.Fatal(err)
	}
	mustBalance(t, s, "alice", 7)
}

func TestIDsNeverReused(t *testing.T) {
	s := seeded(t, map[string]int64{"alice": 100})
	seen := map[InvestmentID]bool{}
	for i := 0; i < 10; i++ {
		id, err := s.BuyInvestment("alice", amt(5))
		if err != nil {
			t.Fatal(err)
		}
		if seen[id] {
			t.Fatalf("id %d reused", id)
		}
		seen[id] = true
		if err := s.SellInvestment("alice", id); err != nil {
			t.Fatal(err)
		}
	}
	if s.NextID() != 10 {
		t.Fatalf("next id = %d, want 10", s.NextID())
	}
}

func TestRestoreRejectsBrokenInvariants(t *testing.T) {
	cases := map[string]func() (*State, error){
		"id not below next": func() (*State, error) {
			return Restore(nil, map[InvestmentID]Investment{3: {Owner: "a", Amount: amt(1)}}, 3)
		},
		"negative next id": func() (*State, error) { return Restore(nil, nil, -1) },
		"negative balance": func() (*State, error) {
			return Restore(map[string]Amount{"a": amt(-1)}, nil, 0)
		},
		"empty owner": func() (*State, error) {
			return Restore(nil, map[InvestmentID]Investment{0: {Amount: amt(1)}}, 1)
		},
		"zero investment": func() (*State, error) {
			return Restore(nil, map[InvestmentID]Investment{0: {Owner: "a"}}, 1)
		},
		"above ceiling": func() (*State, error) {
			return Restore(map[string]Amount{"a": amt(11)}, nil, 0, WithMaxBalance(amt(10)))
		},
	}
	for name, fn := range cases {
		if _, err := fn(); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("%s: expected ErrInvalidState, got %v", name, err)
		}
	}
}

func TestHugeAmounts(t *testing.T) {
	huge := MustParseAmount("123456789012345678901234567890")
	s := New()
	if err := s.Deposit("alice", huge); err != nil {
		t.Fatal(err)
	}
	if err := s.Deposit("alice", huge); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Balance("alice")
	if got.String() != "246913578024691357802469135780" {
		t.Fatalf("unexpected balance %s", got)
	}
}

func TestSnapshotOrder(t *testing.T) {
	s := New()
	for _, a := range []string{"carol", "alice", "bob"} {
		if err := s.Deposit(a, amt(10)); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 3; i++ {
		if _, err := s.BuyInvestment("alice", amt(1)); err != nil {
			t.Fatal(err)
		}
	}
	snap := s.Snapshot()
	if snap.Balances[0].Account != "alice" || snap.Balances[2].Account != "carol" {
		t.Fatalf("balances not sorted: %+v", snap.Balances)
	}
	for i, inv := range snap.Investments {
		if inv.ID != InvestmentID(i) {
			t.Fatalf("investments not sorted: %+v", snap.Investments)
		}
	}
}

func TestCause(t *testing.T) {
	if Cause(nil) != "" {
		t.Fatal("nil error should have no cause")
	}
	if Cause(errors.New("boom")) != CauseUnknown {
		t.Fatal("foreign error should be unknown")
	}
	s := New()
	if c := Cause(s.Withdraw("x", amt(1))); c != CauseUnknownAccount {
		t.Fatalf("cause = %q", c)
	}
	if len(Causes()) != 8 {
		t.Fatalf("causes = %v", Causes())
	}
}
