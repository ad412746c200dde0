package ir

import (
	"fmt"
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface wrapping one primitive value.
// Only Uint64, Int64, Bool, and String implement this.
// It is the currency the engine moves across its untyped boundary.
type Value interface {
	Type() Type
	value() // Sealed - only these types implement it
}

// Uint64 wraps an unsigned 64-bit integer.
type Uint64 uint64

func (Uint64) Type() Type { return TypeUint64 }
func (Uint64) value()     {}

// Int64 wraps a signed 64-bit integer.
type Int64 int64

func (Int64) Type() Type { return TypeInt64 }
func (Int64) value()     {}

// Bool wraps a boolean.
type Bool bool

func (Bool) Type() Type { return TypeBool }
func (Bool) value()     {}

// String wraps a string.
type String string

func (String) Type() Type { return TypeString }
func (String) value()     {}

// Zero returns the zero value for t. Freshly created field slots hold it.
// Panics on an unknown tag; tags are validated at node construction.
func Zero(t Type) Value {
	switch t {
	case TypeUint64:
		return Uint64(0)
	case TypeInt64:
		return Int64(0)
	case TypeBool:
		return Bool(false)
	case TypeString:
		return String("")
	}
	panic(fmt.Sprintf("ir.Zero: unknown type %s", t))
}

// Primitive is the set of Go types that can flow through signals.
type Primitive interface {
	uint64 | int64 | bool | string
}

// TypeOf reports the Type tag for the primitive T.
func TypeOf[T Primitive]() Type {
	var zero T
	switch any(zero).(type) {
	case uint64:
		return TypeUint64
	case int64:
		return TypeInt64
	case bool:
		return TypeBool
	default:
		return TypeString
	}
}

// Wrap boxes v into its Value.
func Wrap[T Primitive](v T) Value {
	switch x := any(v).(type) {
	case uint64:
		return Uint64(x)
	case int64:
		return Int64(x)
	case bool:
		return Bool(x)
	case string:
		return String(x)
	}
	panic("unreachable")
}

// Unwrap converts v back to T.
//
// A tag mismatch is a programming-contract violation and panics. The engine
// only pairs a typed consumer with the field it registered against, and the
// type tag is part of node identity, so a mismatch cannot arise through it.
func Unwrap[T Primitive](v Value) T {
	var out T
	if v == nil || v.Type() != TypeOf[T]() {
		panic(fmt.Sprintf("ir.Unwrap: value %v is not %s", v, TypeOf[T]()))
	}
	switch p := any(&out).(type) {
	case *uint64:
		*p = uint64(v.(Uint64))
	case *int64:
		*p = int64(v.(Int64))
	case *bool:
		*p = bool(v.(Bool))
	case *string:
		*p = string(v.(String))
	}
	return out
}

// Apply evaluates op over two operand values.
// Unsigned and signed addition wrap on overflow.
func Apply(op Op, left, right Value) (Value, error) {
	if left == nil || right == nil {
		return nil, fmt.Errorf("%s: missing operand", op)
	}
	if _, err := op.ResultType(left.Type(), right.Type()); err != nil {
		return nil, err
	}
	switch l := left.(type) {
	case Uint64:
		r := right.(Uint64)
		if op == OpMul {
			return l * r, nil
		}
		return l + r, nil
	case Int64:
		r := right.(Int64)
		if op == OpMul {
			return l * r, nil
		}
		return l + r, nil
	case String:
		return l + right.(String), nil
	}
	return nil, fmt.Errorf("%s: unsupported operand %v", op, left)
}

// Native returns v as a plain Go value (uint64, int64, bool, string).
// Used by encoders that do not know about Value.
func Native(v Value) any {
	switch x := v.(type) {
	case Uint64:
		return uint64(x)
	case Int64:
		return int64(x)
	case Bool:
		return bool(x)
	case String:
		return string(x)
	}
	return nil
}

// FromNative converts a decoded Go value (as produced by yaml or json
// decoders) into a Value of type t.
func FromNative(t Type, v any) (Value, error) {
	switch t {
	case TypeUint64:
		n, err := toInt64(v)
		if err != nil {
			if u, ok := v.(uint64); ok {
				return Uint64(u), nil
			}
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("negative value %d for %s", n, t)
		}
		return Uint64(uint64(n)), nil
	case TypeInt64:
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		return Int64(n), nil
	case TypeBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		return Bool(b), nil
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return String(s), nil
	}
	return nil, fmt.Errorf("unknown type %s", t)
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case uint64:
		if n > 1<<63-1 {
			return 0, fmt.Errorf("value %d overflows int64", n)
		}
		return int64(n), nil
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("non-integer value %v", n)
		}
		return int64(n), nil
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}

// sortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings uses UTF-8 byte order, which differs for astral characters.
func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
