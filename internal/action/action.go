// Package action maps the bank model's recorded steps to ledger operations.
// The set of actions is closed: every step becomes exactly one of the types
// below, and unrecognised names become Unknown, which does nothing.
package action

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"qazna.org/bankmbt/internal/itf"
	"qazna.org/bankmbt/internal/ledger"
)

// Action names used by the model.
const (
	NameInit           = "init"
	NameDeposit        = "deposit_action"
	NameWithdraw       = "withdraw_action"
	NameTransfer       = "transfer_action"
	NameBuyInvestment  = "buy_investment_action"
	NameSellInvestment = "sell_investment_action"
)

// ErrMissingPick is returned when a step lacks an argument its action needs.
var ErrMissingPick = errors.New("missing nondeterministic pick")

// Action is one step of a trace.
type Action interface {
	// Name is the model's name for the action.
	Name() string
	// Apply runs the action against s and returns the ledger's verdict.
	Apply(s *ledger.State) error
	String() string
}

type Init struct{}

type Deposit struct {
	Depositor string
	Amount    ledger.Amount
}

type Withdraw struct {
	Withdrawer string
	Amount     ledger.Amount
}

type Transfer struct {
	Sender   string
	Receiver string
	Amount   ledger.Amount
}

type BuyInvestment struct {
	Buyer  string
	Amount ledger.Amount
}

// SellInvestment carries the id as recorded; ids outside the ledger's id
// space reach the engine and are reported as not found.
type SellInvestment struct {
	Seller string
	ID     *big.Int
}

// Unknown is an action this harness has no mapping for.
type Unknown struct {
	ActionName string
}

func (Init) Name() string           { return NameInit }
func (Deposit) Name() string        { return NameDeposit }
func (Withdraw) Name() string       { return NameWithdraw }
func (Transfer) Name() string       { return NameTransfer }
func (BuyInvestment) Name() string  { return NameBuyInvestment }
func (SellInvestment) Name() string { return NameSellInvestment }
func (u Unknown) Name() string      { return u.ActionName }

func (Init) Apply(*ledger.State) error      { return nil }
func (u Unknown) Apply(*ledger.State) error { return nil }

func (a Deposit) Apply(s *ledger.State) error  { return s.Deposit(a.Depositor, a.Amount) }
func (a Withdraw) Apply(s *ledger.State) error { return s.Withdraw(a.Withdrawer, a.Amount) }
func (a Transfer) Apply(s *ledger.State) error { return s.Transfer(a.Sender, a.Receiver, a.Amount) }

func (a BuyInvestment) Apply(s *ledger.State) error {
	_, err := s.BuyInvestment(a.Buyer, a.Amount)
	return err
}

func (a SellInvestment) Apply(s *ledger.State) error { return s.SellInvestmentBig(a.Seller, a.ID) }

func (Init) String() string      { return "init" }
func (u Unknown) String() string { return u.ActionName }

func (a Deposit) String() string {
	return fmt.Sprintf("deposit(%s, %s)", a.Depositor, a.Amount)
}

func (a Withdraw) String() string {
	return fmt.Sprintf("withdraw(%s, %s)", a.Withdrawer, a.Amount)
}

func (a Transfer) String() string {
	return fmt.Sprintf("transfer(%s, %s, %s)", a.Sender, a.Receiver, a.Amount)
}

func (a BuyInvestment) String() string {
	return fmt.Sprintf("buy_investment(%s, %s)", a.Buyer, a.Amount)
}

func (a SellInvestment) String() string {
	return fmt.Sprintf("sell_investment(%s, %s)", a.Seller, a.ID)
}

// Parse resolves an action name and its picks into an Action.
func Parse(name string, picks map[string]json.RawMessage) (Action, error) {
	p := pickReader{picks: picks}
	var a Action
	switch name {
	case NameInit:
		a = Init{}
	case NameDeposit:
		a = Deposit{Depositor: p.str("depositor"), Amount: p.amount("amount")}
	case NameWithdraw:
		a = Withdraw{Withdrawer: p.str("withdrawer"), Amount: p.amount("amount")}
	case NameTransfer:
		a = Transfer{Sender: p.str("sender"), Receiver: p.str("receiver"), Amount: p.amount("amount")}
	case NameBuyInvestment:
		a = BuyInvestment{Buyer: p.str("buyer"), Amount: p.amount("amount")}
	case NameSellInvestment:
		a = SellInvestment{Seller: p.str("seller"), ID: p.bigInt("id")}
	default:
		return Unknown{ActionName: name}, nil
	}
	if p.err != nil {
		return nil, fmt.Errorf("%s: %w", name, p.err)
	}
	return a, nil
}

// FromState parses the action recorded in st.
func FromState(st itf.State) (Action, error) {
	name, err := st.ActionTaken()
	if err != nil {
		return nil, err
	}
	picks, err := st.NondetPicks()
	if err != nil {
		return nil, err
	}
	return Parse(name, picks)
}

// pickReader keeps the first decoding error so Parse can read all picks in one go.
type pickReader struct {
	picks map[string]json.RawMessage
	err   error
}

func (p *pickReader) raw(key string) (json.RawMessage, bool) {
	if p.err != nil {
		return nil, false
	}
	v, ok := p.picks[key]
	if !ok {
		p.err = fmt.Errorf("%w %q", ErrMissingPick, key)
	}
	return v, ok
}

func (p *pickReader) str(key string) string {
	raw, ok := p.raw(key)
	if !ok {
		return ""
	}
	s, err := itf.DecodeString(raw)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", key, err)
	}
	return s
}

func (p *pickReader) bigInt(key string) *big.Int {
	raw, ok := p.raw(key)
	if !ok {
		return nil
	}
	v, err := itf.DecodeBigInt(raw)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", key, err)
		return nil
	}
	return v
}

func (p *pickReader) amount(key string) ledger.Amount {
	v := p.bigInt(key)
	if v == nil {
		return ledger.Amount{}
	}
	return ledger.AmountFromBig(v)
}
