package action

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qazna.org/bankmbt/internal/itf"
	"qazna.org/bankmbt/internal/ledger"
)

func picks(kv ...any) map[string]json.RawMessage {
	out := map[string]json.RawMessage{}
	for i := 0; i < len(kv); i += 2 {
		key := kv[i].(string)
		switch v := kv[i+1].(type) {
		case string:
			out[key] = itf.String(v)
		case int:
			out[key] = itf.Int64(int64(v))
		}
	}
	return out
}

func TestParse(t *testing.T) {
	cases := []struct {
		name  string
		picks map[string]json.RawMessage
		want  string
	}{
		{NameInit, nil, "init"},
		{NameDeposit, picks("depositor", "alice", "amount", 10), "deposit(alice, 10)"},
		{NameWithdraw, picks("withdrawer", "bob", "amount", -3), "withdraw(bob, -3)"},
		{NameTransfer, picks("sender", "alice", "receiver", "bob", "amount", 5), "transfer(alice, bob, 5)"},
		{NameBuyInvestment, picks("buyer", "alice", "amount", 50), "buy_investment(alice, 50)"},
		{NameSellInvestment, picks("seller", "alice", "id", 1), "sell_investment(alice, 1)"},
		{"mint_action", nil, "mint_action"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := Parse(tc.name, tc.picks)
			require.NoError(t, err)
			assert.Equal(t, tc.name, a.Name())
			assert.Equal(t, tc.want, a.String())
		})
	}
}

func TestParseMissingPick(t *testing.T) {
	_, err := Parse(NameTransfer, picks("sender", "alice", "amount", 5))
	require.ErrorIs(t, err, ErrMissingPick)
	assert.Contains(t, err.Error(), "receiver")
}

func TestParseBadPick(t *testing.T) {
	_, err := Parse(NameDeposit, map[string]json.RawMessage{
		"depositor": itf.String("alice"),
		"amount":    itf.String("ten"),
	})
	require.ErrorIs(t, err, itf.ErrMalformed)

	_, err = Parse(NameSellInvestment, map[string]json.RawMessage{
		"seller": itf.Int64(1),
		"id":     itf.Int64(1),
	})
	require.ErrorIs(t, err, itf.ErrMalformed)

	_, err = Parse(NameDeposit, map[string]json.RawMessage{
		"depositor": json.RawMessage(`null`),
		"amount":    itf.Int64(1),
	})
	require.ErrorIs(t, err, itf.ErrMalformed)
}

func TestApply(t *testing.T) {
	s := ledger.New()
	steps := []Action{
		Init{},
		Deposit{Depositor: "alice", Amount: ledger.NewAmount(100)},
		Transfer{Sender: "alice", Receiver: "bob", Amount: ledger.NewAmount(40)},
		BuyInvestment{Buyer: "alice", Amount: ledger.NewAmount(50)},
		Withdraw{Withdrawer: "bob", Amount: ledger.NewAmount(40)},
		SellInvestment{Seller: "alice", ID: big.NewInt(0)},
		Unknown{ActionName: "noop"},
	}
	for _, a := range steps {
		require.NoError(t, a.Apply(s), a.String())
	}
	alice, _ := s.Balance("alice")
	bob, _ := s.Balance("bob")
	assert.Equal(t, "60", alice.String())
	assert.Equal(t, "0", bob.String())
	assert.EqualValues(t, 1, s.NextID())

	err := SellInvestment{Seller: "bob", ID: big.NewInt(0)}.Apply(s)
	assert.ErrorIs(t, err, ledger.ErrInvestmentNotFound)
}

func TestFromState(t *testing.T) {
	st := itf.State{Fields: map[string]json.RawMessage{
		itf.VarActionTaken: itf.String(NameDeposit),
		itf.VarNondetPicks: itf.Record(map[string]json.RawMessage{
			"depositor": itf.Some(itf.String("carol")),
			"amount":    itf.Some(itf.Int64(7)),
		}),
	}}
	a, err := FromState(st)
	require.NoError(t, err)
	assert.Equal(t, Deposit{Depositor: "carol", Amount: ledger.NewAmount(7)}.String(), a.String())
}

func TestEncodePicksRoundTrip(t *testing.T) {
	steps := []Action{
		Init{},
		Deposit{Depositor: "alice", Amount: ledger.MustParseAmount("1180591620717411303424")},
		Withdraw{Withdrawer: "bob", Amount: ledger.NewAmount(-1)},
		Transfer{Sender: "alice", Receiver: "alice", Amount: ledger.NewAmount(3)},
		BuyInvestment{Buyer: "carol", Amount: ledger.NewAmount(0)},
		SellInvestment{Seller: "alice", ID: big.NewInt(4)},
		SellInvestment{Seller: "alice", ID: new(big.Int).Lsh(big.NewInt(1), 64)},
	}
	for _, a := range steps {
		st := itf.State{Fields: map[string]json.RawMessage{
			itf.VarActionTaken: itf.String(a.Name()),
			itf.VarNondetPicks: EncodePicks(a),
		}}
		rec, err := itf.DecodeRecord(st.Fields[itf.VarNondetPicks])
		require.NoError(t, err)
		assert.Len(t, rec, len(PickNames), "every pick is recorded")

		back, err := FromState(st)
		require.NoError(t, err)
		assert.Equal(t, a.String(), back.String())
	}
}

func TestSellPickBeyondIDSpace(t *testing.T) {
	wide, _ := new(big.Int).SetString("18446744073709551616", 10)
	a, err := Parse(NameSellInvestment, map[string]json.RawMessage{
		"seller": itf.String("alice"),
		"id":     itf.BigInt(wide),
	})
	require.NoError(t, err)
	assert.Equal(t, "sell_investment(alice, 18446744073709551616)", a.String())

	s := ledger.New()
	require.NoError(t, s.Deposit("alice", ledger.NewAmount(100)))
	before := s.Clone()
	assert.ErrorIs(t, a.Apply(s), ledger.ErrInvestmentNotFound)
	assert.True(t, s.Equal(before))
}
