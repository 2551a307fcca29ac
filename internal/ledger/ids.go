package ledger

import (
	"math"
	"math/big"
)

// IDAllocator hands out investment ids in strictly increasing order.
// An id is never handed out twice, even after its investment is sold.
type IDAllocator struct {
	next InvestmentID
}

func NewIDAllocator(next InvestmentID) IDAllocator {
	return IDAllocator{next: next}
}

// Peek returns the id the next Allocate call will return.
func (a IDAllocator) Peek() InvestmentID { return a.next }

func (a IDAllocator) exhausted() bool { return a.next == math.MaxInt64 }

// Allocate returns the next id and advances the counter by one.
func (a *IDAllocator) Allocate() (InvestmentID, error) {
	if a.exhausted() {
		return 0, ErrIDSpaceExhausted
	}
	id := a.next
	a.next++
	return id, nil
}

// InvestmentIDFromBig converts v to an InvestmentID. It reports false when v
// lies outside the id space, in which case no investment can carry it.
func InvestmentIDFromBig(v *big.Int) (InvestmentID, bool) {
	if v == nil || !v.IsInt64() {
		return 0, false
	}
	return InvestmentID(v.Int64()), true
}
