package swap

import "fmt"

// direction reports which way a transfer of token converts.
func (c Config) direction(token TokenID) (Direction, bool) {
	switch token {
	case c.TokenA:
		return AToB, true
	case c.TokenB:
		return BToA, true
	default:
		return 0, false
	}
}

func (c Config) outputToken(dir Direction) TokenID {
	if dir == AToB {
		return c.TokenB
	}
	return c.TokenA
}

func (c Config) inputToken(dir Direction) TokenID {
	if dir == AToB {
		return c.TokenA
	}
	return c.TokenB
}

// ValidateSwapTransfers requires exactly one non-zero transfer of token A or
// token B and returns it with the direction it converts in.
func (c Config) ValidateSwapTransfers(in []IncomingTransfer) (IncomingTransfer, Direction, error) {
	if len(in) != 1 {
		return IncomingTransfer{}, 0, fmt.Errorf("%w: expected exactly 1 transfer, got %d", ErrTokenMismatch, len(in))
	}
	t := in[0]
	dir, ok := c.direction(t.Token)
	if !ok {
		return IncomingTransfer{}, 0, fmt.Errorf("%w: unrecognized token %q", ErrTokenMismatch, t.Token)
	}
	if t.Amount == 0 {
		return IncomingTransfer{}, 0, fmt.Errorf("%w: zero amount of %q", ErrTokenMismatch, t.Token)
	}
	return t, dir, nil
}

// ValidateFunding sums attached transfers per token for AddReserves. At least
// one transfer is required and every transfer must be token A or token B.
func (c Config) ValidateFunding(in []IncomingTransfer) (amountA, amountB uint64, err error) {
	if len(in) == 0 {
		return 0, 0, fmt.Errorf("%w: no transfers attached", ErrTokenMismatch)
	}
	for _, t := range in {
		dir, ok := c.direction(t.Token)
		if !ok {
			return 0, 0, fmt.Errorf("%w: unrecognized token %q", ErrTokenMismatch, t.Token)
		}
		if dir == AToB {
			amountA, err = addChecked(amountA, t.Amount)
		} else {
			amountB, err = addChecked(amountB, t.Amount)
		}
		if err != nil {
			return 0, 0, err
		}
	}
	if amountA == 0 && amountB == 0 {
		return 0, 0, fmt.Errorf("%w: zero funding", ErrTokenMismatch)
	}
	return amountA, amountB, nil
}

// forward returns every attached transfer to recipient unchanged.
func forward(in []IncomingTransfer, recipient string) []OutgoingTransfer {
	if len(in) == 0 {
		return nil
	}
	out := make([]OutgoingTransfer, 0, len(in))
	for _, t := range in {
		if t.Amount == 0 {
			continue
		}
		out = append(out, OutgoingTransfer{Token: t.Token, Amount: t.Amount, Recipient: recipient})
	}
	return out
}
