package swap

import "errors"

// Every error aborts the call; the host discards all writes attempted
// during that call.
var (
	ErrInvalidOpcode       = errors.New("invalid opcode")
	ErrInvalidArguments    = errors.New("invalid arguments")
	ErrAlreadyInitialized  = errors.New("already initialized")
	ErrNotInitialized      = errors.New("not initialized")
	ErrTokenMismatch       = errors.New("token mismatch")
	ErrInsufficientReserve = errors.New("insufficient reserve")
	ErrArithmeticOverflow  = errors.New("arithmetic overflow")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInexactAmount       = errors.New("amount is not a multiple of the rate")
	ErrAmountTooSmall      = errors.New("amount too small to convert")
	ErrTxAlreadyUsed       = errors.New("transaction already used for swap")
	ErrCorruptState        = errors.New("corrupt contract state")
)
