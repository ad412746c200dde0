package ir

import "fmt"

// Type is the semantic value-type tag a signal produces.
// The set is closed; every Type has a zero value (see Zero).
type Type uint8

const (
	// TypeUint64 is an unsigned 64-bit integer.
	TypeUint64 Type = iota + 1
	// TypeInt64 is a signed 64-bit integer.
	TypeInt64
	// TypeBool is a boolean.
	TypeBool
	// TypeString is a UTF-8 string.
	TypeString
)

var typeNames = map[Type]string{
	TypeUint64: "u64",
	TypeInt64:  "i64",
	TypeBool:   "bool",
	TypeString: "string",
}

// String returns the short type name used in graph files and canonical encodings.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Valid reports whether t is one of the supported tags.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// ParseType maps a short type name ("u64", "i64", "bool", "string") to its tag.
func ParseType(name string) (Type, error) {
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown type %q", name)
}

// Op identifies the operator of a derived node.
type Op uint8

const (
	// OpAdd adds numeric operands or concatenates strings.
	OpAdd Op = iota + 1
	// OpMul multiplies numeric operands.
	OpMul
)

var opNames = map[Op]string{
	OpAdd: "add",
	OpMul: "mul",
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// ParseOp maps an operator name ("add", "mul") to its Op.
func ParseOp(name string) (Op, error) {
	for o, n := range opNames {
		if n == name {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown operator %q", name)
}

// ResultType returns the type produced by applying o to operands of the given types.
// Operands must share one type; OpAdd accepts numeric and string operands,
// OpMul only numeric ones.
func (o Op) ResultType(left, right Type) (Type, error) {
	if left != right {
		return 0, fmt.Errorf("%s: operand types differ (%s, %s)", o, left, right)
	}
	switch o {
	case OpAdd:
		switch left {
		case TypeUint64, TypeInt64, TypeString:
			return left, nil
		}
	case OpMul:
		switch left {
		case TypeUint64, TypeInt64:
			return left, nil
		}
	default:
		return 0, fmt.Errorf("unknown operator %s", o)
	}
	return 0, fmt.Errorf("%s: unsupported operand type %s", o, left)
}
