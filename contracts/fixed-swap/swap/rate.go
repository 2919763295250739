package swap

import (
	"fmt"
	"math/bits"
)

// Rate is the number of token B units worth one unit of token A.
const Rate uint64 = 100_000

type Direction uint8

const (
	AToB Direction = iota + 1
	BToA
)

func (d Direction) String() string {
	switch d {
	case AToB:
		return "a_to_b"
	case BToA:
		return "b_to_a"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// DustPolicy decides what happens to the remainder of a B->A conversion.
type DustPolicy uint8

const (
	// DustRefund sends the remainder back to the caller with the payout.
	DustRefund DustPolicy = iota
	// DustReject fails any B->A swap that is not an exact multiple of Rate.
	DustReject
)

func (p DustPolicy) String() string {
	switch p {
	case DustRefund:
		return "refund"
	case DustReject:
		return "reject"
	default:
		return fmt.Sprintf("dust_policy(%d)", uint8(p))
	}
}

// ParseDustPolicy accepts "refund" or "reject".
func ParseDustPolicy(s string) (DustPolicy, error) {
	switch s {
	case "refund", "":
		return DustRefund, nil
	case "reject":
		return DustReject, nil
	default:
		return 0, fmt.Errorf("unknown dust policy %q", s)
	}
}

// Convert maps amount of the input token to the output token.
// A->B never produces dust; B->A floors and reports the remainder.
func Convert(amount uint64, dir Direction) (out uint64, dust uint64, err error) {
	switch dir {
	case AToB:
		hi, lo := bits.Mul64(amount, Rate)
		if hi != 0 {
			return 0, 0, fmt.Errorf("%w: %d * %d", ErrArithmeticOverflow, amount, Rate)
		}
		return lo, 0, nil
	case BToA:
		return amount / Rate, amount % Rate, nil
	default:
		return 0, 0, fmt.Errorf("%w: unknown direction %d", ErrInvalidArguments, dir)
	}
}

// Quote is the transient swap request derived from one attached transfer.
type Quote struct {
	Direction Direction
	AmountIn  uint64
	// Consumed is the part of AmountIn kept by the contract.
	Consumed uint64
	Output   uint64
	// Refund is returned to the caller in the input token.
	Refund uint64
}

// NewQuote converts amount and applies the dust policy.
func NewQuote(amount uint64, dir Direction, policy DustPolicy) (Quote, error) {
	out, dust, err := Convert(amount, dir)
	if err != nil {
		return Quote{}, err
	}
	if out == 0 {
		return Quote{}, fmt.Errorf("%w: %d", ErrAmountTooSmall, amount)
	}

	q := Quote{
		Direction: dir,
		AmountIn:  amount,
		Consumed:  amount,
		Output:    out,
	}
	if dust == 0 {
		return q, nil
	}

	switch policy {
	case DustRefund:
		q.Consumed = amount - dust
		q.Refund = dust
	case DustReject:
		return Quote{}, fmt.Errorf("%w: %d leaves %d", ErrInexactAmount, amount, dust)
	default:
		return Quote{}, fmt.Errorf("%w: dust policy %d", ErrInvalidArguments, policy)
	}
	return q, nil
}

// IssuedValue is the quote's contribution to TotalIssued, in token B units.
func (q Quote) IssuedValue() uint64 {
	if q.Direction == AToB {
		return q.Output
	}
	return q.Consumed
}

func addChecked(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: %d + %d", ErrArithmeticOverflow, a, b)
	}
	return sum, nil
}

func subChecked(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, fmt.Errorf("%w: %d - %d", ErrInsufficientReserve, a, b)
	}
	return diff, nil
}
