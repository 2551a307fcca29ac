// Package bankstate converts between the bank model's trace variables and
// ledger values.
package bankstate

import (
	"encoding/json"
	"fmt"

	"qazna.org/bankmbt/internal/itf"
	"qazna.org/bankmbt/internal/ledger"
)

// Names of the model variables.
const (
	VarBankState = "bank_state"
	VarError     = "error"
)

// Decode builds a ledger from an encoded bank_state record.
func Decode(raw json.RawMessage, opts ...ledger.Option) (*ledger.State, error) {
	rec, err := itf.DecodeRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", VarBankState, err)
	}

	balances, err := decodeBalances(rec["balances"])
	if err != nil {
		return nil, fmt.Errorf("%s.balances: %w", VarBankState, err)
	}
	investments, err := decodeInvestments(rec["investments"])
	if err != nil {
		return nil, fmt.Errorf("%s.investments: %w", VarBankState, err)
	}
	next, err := itf.DecodeInt64(rec["next_id"])
	if err != nil {
		return nil, fmt.Errorf("%s.next_id: %w", VarBankState, err)
	}
	return ledger.Restore(balances, investments, ledger.InvestmentID(next), opts...)
}

// FromState decodes the bank_state variable of one trace state.
func FromState(st itf.State, opts ...ledger.Option) (*ledger.State, error) {
	raw, err := st.Field(VarBankState)
	if err != nil {
		return nil, err
	}
	return Decode(raw, opts...)
}

func decodeBalances(raw json.RawMessage) (map[string]ledger.Amount, error) {
	pairs, err := itf.DecodeMap(raw)
	if err != nil {
		return nil, err
	}
	out := make(map[string]ledger.Amount, len(pairs))
	for _, p := range pairs {
		account, err := itf.DecodeString(p.Key)
		if err != nil {
			return nil, err
		}
		v, err := itf.DecodeBigInt(p.Value)
		if err != nil {
			return nil, fmt.Errorf("[%s]: %w", account, err)
		}
		if _, dup := out[account]; dup {
			return nil, fmt.Errorf("%w: duplicate account %q", itf.ErrMalformed, account)
		}
		out[account] = ledger.AmountFromBig(v)
	}
	return out, nil
}

func decodeInvestments(raw json.RawMessage) (map[ledger.InvestmentID]ledger.Investment, error) {
	pairs, err := itf.DecodeMap(raw)
	if err != nil {
		return nil, err
	}
	out := make(map[ledger.InvestmentID]ledger.Investment, len(pairs))
	for _, p := range pairs {
		id, err := itf.DecodeInt64(p.Key)
		if err != nil {
			return nil, err
		}
		rec, err := itf.DecodeRecord(p.Value)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", id, err)
		}
		owner, err := itf.DecodeString(rec["owner"])
		if err != nil {
			return nil, fmt.Errorf("[%d].owner: %w", id, err)
		}
		amount, err := itf.DecodeBigInt(rec["amount"])
		if err != nil {
			return nil, fmt.Errorf("[%d].amount: %w", id, err)
		}
		key := ledger.InvestmentID(id)
		if _, dup := out[key]; dup {
			return nil, fmt.Errorf("%w: duplicate investment %d", itf.ErrMalformed, id)
		}
		out[key] = ledger.Investment{Owner: owner, Amount: ledger.AmountFromBig(amount)}
	}
	return out, nil
}

// Encode writes s in the bank_state record layout, balances ordered by
// account and investments by id.
func Encode(s *ledger.State) json.RawMessage {
	snap := s.Snapshot()

	balances := make([]itf.Pair, 0, len(snap.Balances))
	for _, b := range snap.Balances {
		balances = append(balances, itf.Pair{Key: itf.String(b.Account), Value: itf.BigInt(b.Amount.Big())})
	}
	investments := make([]itf.Pair, 0, len(snap.Investments))
	for _, inv := range snap.Investments {
		investments = append(investments, itf.Pair{
			Key: itf.Int64(int64(inv.ID)),
			Value: itf.Record(map[string]json.RawMessage{
				"owner":  itf.String(inv.Owner),
				"amount": itf.BigInt(inv.Amount.Big()),
			}),
		})
	}
	return itf.Record(map[string]json.RawMessage{
		"balances":    itf.Map(balances),
		"investments": itf.Map(investments),
		"next_id":     itf.Int64(int64(snap.NextID)),
	})
}

// ExpectedError returns the error text recorded in st, "" when the model
// reported none.
func ExpectedError(st itf.State) (string, error) {
	raw, ok := st.Fields[VarError]
	if !ok {
		return "", nil
	}
	v, some, err := itf.DecodeOption(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", VarError, err)
	}
	if !some {
		return "", nil
	}
	text, err := itf.DecodeString(v)
	if err != nil {
		return "", fmt.Errorf("%s: %w", VarError, err)
	}
	return text, nil
}

// EncodeError is the inverse of ExpectedError.
func EncodeError(text string) json.RawMessage {
	if text == "" {
		return itf.None()
	}
	return itf.Some(itf.String(text))
}
