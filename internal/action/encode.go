package action

import (
	"encoding/json"
	"fmt"
	"math/big"

	"qazna.org/bankmbt/internal/itf"
	"qazna.org/bankmbt/internal/ledger"
)

// PickNames lists every nondeterministic pick the model declares. Each
// recorded step carries all of them, set to None when the action taken does
// not use it.
var PickNames = []string{"amount", "buyer", "depositor", "id", "receiver", "seller", "sender", "withdrawer"}

// Picks returns the picks a carries, encoded.
func Picks(a Action) map[string]json.RawMessage {
	amount := func(v ledger.Amount) json.RawMessage { return itf.BigInt(v.Big()) }
	switch a := a.(type) {
	case Deposit:
		return map[string]json.RawMessage{"depositor": itf.String(a.Depositor), "amount": amount(a.Amount)}
	case Withdraw:
		return map[string]json.RawMessage{"withdrawer": itf.String(a.Withdrawer), "amount": amount(a.Amount)}
	case Transfer:
		return map[string]json.RawMessage{
			"sender":   itf.String(a.Sender),
			"receiver": itf.String(a.Receiver),
			"amount":   amount(a.Amount),
		}
	case BuyInvestment:
		return map[string]json.RawMessage{"buyer": itf.String(a.Buyer), "amount": amount(a.Amount)}
	case SellInvestment:
		id := a.ID
		if id == nil {
			id = new(big.Int)
		}
		return map[string]json.RawMessage{"seller": itf.String(a.Seller), "id": itf.BigInt(id)}
	case Init, Unknown:
		return map[string]json.RawMessage{}
	default:
		panic(fmt.Sprintf("action: unhandled type %T", a))
	}
}

// EncodePicks encodes the mbt::nondetPicks record for a.
func EncodePicks(a Action) json.RawMessage {
	used := Picks(a)
	rec := make(map[string]json.RawMessage, len(PickNames))
	for _, name := range PickNames {
		if v, ok := used[name]; ok {
			rec[name] = itf.Some(v)
		} else {
			rec[name] = itf.None()
		}
	}
	return itf.Record(rec)
}
