package ledger

import (
	"fmt"
	"math/big"
)

// Amount is an integer number of units with no upper or lower bound.
// Values are immutable: arithmetic returns a fresh Amount and never
// writes through to an operand. The zero value is 0.
type Amount struct {
	v *big.Int
}

// NewAmount converts an int64 into an Amount.
func NewAmount(n int64) Amount {
	if n == 0 {
		return Amount{}
	}
	return Amount{v: big.NewInt(n)}
}

// ParseAmount parses a base-10 integer such as "42" or "-170141183460469231731687303715884105728".
func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return Amount{}, fmt.Errorf("parse amount: empty string")
	}
	digits := s
	if digits[0] == '-' || digits[0] == '+' {
		digits = digits[1:]
	}
	if digits == "" {
		return Amount{}, fmt.Errorf("parse amount %q: no digits", s)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return Amount{}, fmt.Errorf("parse amount %q: invalid character %q", s, r)
		}
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("parse amount %q: not an integer", s)
	}
	return fromBig(v), nil
}

// MustParseAmount is ParseAmount for literals known to be valid.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AmountFromBig copies v into an Amount.
func AmountFromBig(v *big.Int) Amount {
	return fromBig(new(big.Int).Set(v))
}

// Big returns a copy of the value.
func (a Amount) Big() *big.Int {
	return new(big.Int).Set(a.big())
}

func fromBig(v *big.Int) Amount {
	if v.Sign() == 0 {
		return Amount{}
	}
	return Amount{v: v}
}

func (a Amount) big() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return a.v
}

func (a Amount) Add(b Amount) Amount { return fromBig(new(big.Int).Add(a.big(), b.big())) }
func (a Amount) Sub(b Amount) Amount { return fromBig(new(big.Int).Sub(a.big(), b.big())) }

// Cmp returns -1, 0 or +1 depending on whether a is less than, equal to or greater than b.
func (a Amount) Cmp(b Amount) int { return a.big().Cmp(b.big()) }

func (a Amount) Sign() int {
	if a.v == nil {
		return 0
	}
	return a.v.Sign()
}

func (a Amount) IsZero() bool       { return a.Sign() == 0 }
func (a Amount) IsPositive() bool   { return a.Sign() > 0 }
func (a Amount) Equal(b Amount) bool { return a.Cmp(b) == 0 }

// Int64 reports the value as an int64 when it fits.
func (a Amount) Int64() (int64, bool) {
	if a.v == nil {
		return 0, true
	}
	if !a.v.IsInt64() {
		return 0, false
	}
	return a.v.Int64(), true
}

func (a Amount) String() string {
	if a.v == nil {
		return "0"
	}
	return a.v.String()
}

func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalText(text []byte) error {
	v, err := ParseAmount(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
