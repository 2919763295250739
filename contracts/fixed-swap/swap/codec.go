package swap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/CosmWasm/tinyjson/jlexer"
)

// Reserves is the GetReserves payload.
//
//tinyjson:json
type Reserves struct {
	ReserveA uint64 `json:"reserve_a"`
	ReserveB uint64 `json:"reserve_b"`
}

// ParseArgs parses a comma separated list of unsigned integers, e.g. the
// deployment argument "1,0". An empty string yields no arguments.
func ParseArgs(s string) ([]uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	args := make([]uint64, 0, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d %q", ErrInvalidArguments, i, p)
		}
		args = append(args, v)
	}
	return args, nil
}

// FormatArgs is the inverse of ParseArgs.
func FormatArgs(args []uint64) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = strconv.FormatUint(a, 10)
	}
	return strings.Join(parts, ",")
}

// DecodePayload splits a call payload "opcode,arg1,arg2,..." into its opcode
// and arguments.
func DecodePayload(payload string) (Opcode, []uint64, error) {
	payload = strings.TrimSpace(payload)
	head, rest, _ := strings.Cut(payload, ",")
	op, err := strconv.ParseUint(strings.TrimSpace(head), 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %q", ErrInvalidOpcode, head)
	}
	args, err := ParseArgs(rest)
	if err != nil {
		return 0, nil, err
	}
	return Opcode(op), args, nil
}

// EncodePayload is the inverse of DecodePayload.
func EncodePayload(op Opcode, args []uint64) string {
	s := strconv.FormatUint(uint64(op), 10)
	if len(args) == 0 {
		return s
	}
	return s + "," + FormatArgs(args)
}

// DecodeIncomingTransfers parses the JSON array of attached transfers the
// host passes alongside a call.
func DecodeIncomingTransfers(data []byte) ([]IncomingTransfer, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var out []IncomingTransfer
	in := jlexer.Lexer{Data: data}
	if in.IsNull() {
		in.Skip()
		return nil, in.Error()
	}
	in.Delim('[')
	for !in.IsDelim(']') {
		var t IncomingTransfer
		t.UnmarshalTinyJSON(&in)
		out = append(out, t)
		in.WantComma()
	}
	in.Delim(']')
	in.Consumed()
	if err := in.Error(); err != nil {
		return nil, fmt.Errorf("decode transfers: %w", err)
	}
	return out, nil
}
