package store

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/roach88/rill/internal/ir"
)

// marshalValue converts a Value to canonical JSON TEXT for storage.
func marshalValue(v ir.Value) (string, error) {
	if v == nil {
		return "", fmt.Errorf("marshal value: nil")
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal value: %w", err)
	}
	return string(data), nil
}

// unmarshalValue parses stored TEXT back into a Value of the named type.
// Integers are parsed directly so values above 2^53 survive the round trip.
func unmarshalValue(typeName, data string) (ir.Value, error) {
	t, err := ir.ParseType(typeName)
	if err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	switch t {
	case ir.TypeUint64:
		n, err := strconv.ParseUint(data, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("unmarshal u64: %w", err)
		}
		return ir.Uint64(n), nil
	case ir.TypeInt64:
		n, err := strconv.ParseInt(data, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("unmarshal i64: %w", err)
		}
		return ir.Int64(n), nil
	case ir.TypeBool:
		b, err := strconv.ParseBool(data)
		if err != nil {
			return nil, fmt.Errorf("unmarshal bool: %w", err)
		}
		return ir.Bool(b), nil
	default:
		var s string
		if err := json.Unmarshal([]byte(data), &s); err != nil {
			return nil, fmt.Errorf("unmarshal string: %w", err)
		}
		return ir.String(s), nil
	}
}
