package graph

import "fmt"

// ValueKind enumerates the shapes a parameter value can take.
type ValueKind int

const (
	ValueNumber ValueKind = iota
	ValueArray
	ValueString
)

func (k ValueKind) String() string {
	switch k {
	case ValueNumber:
		return "number"
	case ValueArray:
		return "array"
	case ValueString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is a stored parameter value: a scalar number, a flat numeric
// array (vectors and row-major matrices), or a string. Cols is the row
// width for matrix-shaped arrays and zero for plain vectors.
type Value struct {
	Kind   ValueKind `yaml:"kind"`
	Number float64   `yaml:"number,omitempty"`
	Array  []float64 `yaml:"array,omitempty"`
	Cols   int       `yaml:"cols,omitempty"`
	Str    string    `yaml:"str,omitempty"`
}

// Num returns a scalar value.
func Num(v float64) Value {
	return Value{Kind: ValueNumber, Number: v}
}

// Arr returns a vector value.
func Arr(vs ...float64) Value {
	return Value{Kind: ValueArray, Array: vs}
}

// Str returns a string value.
func Str(s string) Value {
	return Value{Kind: ValueString, Str: s}
}

// Clone returns a deep copy so a caller cannot alias the stored array.
func (v Value) Clone() Value {
	if v.Kind == ValueArray && v.Array != nil {
		cp := make([]float64, len(v.Array))
		copy(cp, v.Array)
		v.Array = cp
	}
	return v
}

// Len returns the element count of an array value, or zero.
func (v Value) Len() int {
	if v.Kind != ValueArray {
		return 0
	}
	return len(v.Array)
}

// At returns element i of an array value, or the scalar for i==0.
func (v Value) At(i int) float64 {
	switch v.Kind {
	case ValueNumber:
		if i == 0 {
			return v.Number
		}
	case ValueArray:
		if i >= 0 && i < len(v.Array) {
			return v.Array[i]
		}
	}
	return 0
}

func (v Value) String() string {
	switch v.Kind {
	case ValueNumber:
		return fmt.Sprintf("%g", v.Number)
	case ValueArray:
		return fmt.Sprintf("%v", v.Array)
	case ValueString:
		return v.Str
	default:
		return "<invalid>"
	}
}
