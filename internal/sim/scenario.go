// Package sim generates random action sequences against the ledger and
// records them as ITF traces, with the engine standing in for the model.
package sim

import (
	"math/big"
	"math/rand"
	"time"

	"qazna.org/bankmbt/internal/action"
	"qazna.org/bankmbt/internal/ledger"
)

// Scenario is the account set and amount range a Generator draws from.
type Scenario struct {
	Name     string
	Accounts []string
	// MaxAmount bounds the ordinary amounts; adversarial ones ignore it.
	MaxAmount int64
}

func BankScenario() Scenario {
	return Scenario{
		Name:      "bank",
		Accounts:  []string{"alice", "bob", "charlie"},
		MaxAmount: 100,
	}
}

// hugeAmount does not fit in 64 bits.
var hugeAmount = ledger.AmountFromBig(new(big.Int).Lsh(big.NewInt(1), 70))

// weights per action, in the order of actionNames.
var (
	actionNames   = []string{action.NameDeposit, action.NameWithdraw, action.NameTransfer, action.NameBuyInvestment, action.NameSellInvestment}
	actionWeights = []int{30, 20, 25, 15, 10}
)

type Generator struct {
	scenario Scenario
	rnd      *rand.Rand
}

// NewGenerator returns a Generator over BankScenario. A zero seed picks one
// from the clock.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{scenario: BankScenario(), rnd: rand.New(rand.NewSource(seed))}
}

func (g *Generator) Accounts() []string {
	return append([]string(nil), g.scenario.Accounts...)
}

func (g *Generator) OverrideAccounts(accounts []string) {
	if len(accounts) == 0 {
		panic("scenario requires at least one account")
	}
	g.scenario.Accounts = append([]string(nil), accounts...)
}

// NextAction draws the next action given the current ledger. Sell attempts
// mostly target existing investments, sometimes by a non-owner.
func (g *Generator) NextAction(s *ledger.State) action.Action {
	switch g.pickAction() {
	case action.NameDeposit:
		return action.Deposit{Depositor: g.account(), Amount: g.amount()}
	case action.NameWithdraw:
		return action.Withdraw{Withdrawer: g.account(), Amount: g.amount()}
	case action.NameTransfer:
		return action.Transfer{Sender: g.account(), Receiver: g.account(), Amount: g.amount()}
	case action.NameBuyInvestment:
		return action.BuyInvestment{Buyer: g.account(), Amount: g.amount()}
	default:
		return action.SellInvestment{Seller: g.account(), ID: g.investmentID(s)}
	}
}

func (g *Generator) pickAction() string {
	total := 0
	for _, w := range actionWeights {
		total += w
	}
	n := g.rnd.Intn(total)
	for i, w := range actionWeights {
		if n < w {
			return actionNames[i]
		}
		n -= w
	}
	return actionNames[len(actionNames)-1]
}

func (g *Generator) account() string {
	accs := g.scenario.Accounts
	return accs[g.rnd.Intn(len(accs))]
}

func (g *Generator) amount() ledger.Amount {
	switch n := g.rnd.Intn(20); {
	case n == 0:
		return ledger.NewAmount(0)
	case n == 1:
		return ledger.NewAmount(-1 - g.rnd.Int63n(g.maxAmount()))
	case n == 2:
		return hugeAmount
	}
	return ledger.NewAmount(1 + g.rnd.Int63n(g.maxAmount()))
}

func (g *Generator) maxAmount() int64 {
	if g.scenario.MaxAmount <= 0 {
		return 1
	}
	return g.scenario.MaxAmount
}

func (g *Generator) investmentID(s *ledger.State) *big.Int {
	live := s.InvestmentIDs()
	switch n := g.rnd.Intn(20); {
	case n < 14 && len(live) > 0:
		return big.NewInt(int64(live[g.rnd.Intn(len(live))]))
	case n == 19:
		// Beyond the id space.
		return new(big.Int).Lsh(big.NewInt(1), 64)
	}
	// Missing ids: already sold, never allocated, or negative.
	return big.NewInt(g.rnd.Int63n(int64(s.NextID())+3) - 1)
}
