package schemas

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ParseTransaction checks data against the schema and decodes it.
func ParseTransaction(data []byte) (*Transaction, error) {
	if err := ValidateTransaction(data); err != nil {
		return nil, err
	}

	var tx Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if err := tx.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &tx, nil
}

// ParseTransferSpec parses "token:amount", e.g. "tokB:250000".
func ParseTransferSpec(spec string) (Transfer, error) {
	token, amount, ok := strings.Cut(strings.TrimSpace(spec), ":")
	if !ok || token == "" {
		return Transfer{}, &ValidationError{Field: "transfer", Message: fmt.Sprintf("transfer %q must be token:amount", spec)}
	}
	n, err := strconv.ParseUint(amount, 10, 64)
	if err != nil || n == 0 {
		return Transfer{}, &ValidationError{Field: "transfer", Message: fmt.Sprintf("transfer %q needs a positive integer amount", spec)}
	}
	return Transfer{Token: token, Amount: n}, nil
}

func parseArgList(s string) ([]uint64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	args := make([]uint64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, &ValidationError{Field: "args", Message: fmt.Sprintf("argument %q is not an unsigned integer", p)}
		}
		args = append(args, v)
	}
	return args, nil
}

// ParseCallFromQuery parses a call written as URL query parameters, e.g.
// "op=42&transfer=tokB:250000" or "op=0&args=1,0".
func ParseCallFromQuery(query string) (*Call, error) {
	values, err := url.ParseQuery(query)
	if err != nil {
		return nil, fmt.Errorf("failed to parse query string: %w", err)
	}

	opStr := values.Get("op")
	if opStr == "" {
		return nil, &ValidationError{Field: "op", Message: "op is required"}
	}
	op, err := strconv.ParseUint(opStr, 10, 64)
	if err != nil {
		return nil, &ValidationError{Field: "op", Message: fmt.Sprintf("op %q is not an unsigned integer", opStr)}
	}

	call := &Call{Opcode: op}
	if call.Args, err = parseArgList(values.Get("args")); err != nil {
		return nil, err
	}
	for _, spec := range values["transfer"] {
		tr, err := ParseTransferSpec(spec)
		if err != nil {
			return nil, err
		}
		call.Transfers = append(call.Transfers, tr)
	}
	return call, nil
}

// ParseCallFromMemo parses a call from a memo string.
// It first tries to parse as JSON, then falls back to URL query parameters
func ParseCallFromMemo(memo string) (*Call, error) {
	memo = strings.TrimSpace(memo)

	if strings.HasPrefix(memo, "{") && strings.HasSuffix(memo, "}") {
		var call Call
		if err := json.Unmarshal([]byte(memo), &call); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		return &call, nil
	}

	return ParseCallFromQuery(memo)
}
