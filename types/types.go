// Package types models Action!'s small, fixed set of value types and the
// widening/assignability rules of Section 4.3.
package types

import "fmt"

// Kind is the tag of a Type's variant. A closed set, so -- following the
// teacher's token.TokenType idiom -- a small exported constant set suffices
// in place of an interface hierarchy.
type Kind int

const (
	// KindVoid is the zero Kind, so an expression whose type has not been
	// resolved yet reports VOID.
	KindVoid Kind = iota
	KindByte
	KindCard
	KindInt
	KindChar
	KindByteArray
	KindCardArray
	KindPointer
)

func (k Kind) String() string {
	switch k {
	case KindByte:
		return "BYTE"
	case KindCard:
		return "CARD"
	case KindInt:
		return "INT"
	case KindChar:
		return "CHAR"
	case KindByteArray:
		return "BYTE ARRAY"
	case KindCardArray:
		return "CARD ARRAY"
	case KindPointer:
		return "POINTER"
	case KindVoid:
		return "VOID"
	default:
		return "UNKNOWN"
	}
}

// Type is a value of Section 3's tagged Type variant. Len is meaningful
// only for array kinds; Inner only for Pointer.
type Type struct {
	Kind  Kind
	Len   int // element count, for ByteArray/CardArray
	Inner *Type
}

var (
	Byte = Type{Kind: KindByte}
	Card = Type{Kind: KindCard}
	Int  = Type{Kind: KindInt}
	Char = Type{Kind: KindChar}
	Void = Type{Kind: KindVoid}
)

// ByteArray returns the type of a fixed-length array of BYTE.
func ByteArray(length int) Type { return Type{Kind: KindByteArray, Len: length} }

// CardArray returns the type of a fixed-length array of CARD.
func CardArray(length int) Type { return Type{Kind: KindCardArray, Len: length} }

// Pointer returns the type of a pointer to inner.
func Pointer(inner Type) Type { return Type{Kind: KindPointer, Inner: &inner} }

// Width returns the storage size in bytes of a value of this type.
func (t Type) Width() int {
	switch t.Kind {
	case KindByte, KindChar:
		return 1
	case KindCard, KindInt, KindPointer:
		return 2
	case KindByteArray:
		return t.Len * 1
	case KindCardArray:
		return t.Len * 2
	default:
		return 0
	}
}

// ElemType returns the element type of an array type.
func (t Type) ElemType() Type {
	switch t.Kind {
	case KindByteArray:
		return Byte
	case KindCardArray:
		return Card
	default:
		return Void
	}
}

// IsArray reports whether t is one of the array kinds.
func (t Type) IsArray() bool {
	return t.Kind == KindByteArray || t.Kind == KindCardArray
}

// Is16Bit reports whether a scalar value of this type occupies 16 bits
// (lands in HL per the code generator's register discipline).
func (t Type) Is16Bit() bool {
	return t.Kind == KindCard || t.Kind == KindInt || t.Kind == KindPointer
}

// Is8Bit reports whether a scalar value of this type occupies 8 bits
// (lands in A).
func (t Type) Is8Bit() bool {
	return t.Kind == KindByte || t.Kind == KindChar
}

func (t Type) String() string {
	switch t.Kind {
	case KindPointer:
		return fmt.Sprintf("POINTER TO %s", t.Inner.String())
	case KindByteArray, KindCardArray:
		return fmt.Sprintf("%s(%d)", t.Kind, t.Len)
	default:
		return t.Kind.String()
	}
}

// Equal reports structural equality between two types.
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind || t.Len != other.Len {
		return false
	}
	if t.Kind == KindPointer {
		return t.Inner.Equal(*other.Inner)
	}
	return true
}

// AssignableTo reports whether a value of type t may be assigned to a
// storage location of type target, per Section 4.3's assignment rules.
// truncating reports whether the assignment narrows a 16-bit value to 8
// bits (a non-fatal warning, never an error).
func (t Type) AssignableTo(target Type) (ok bool, truncating bool) {
	if t.Equal(target) {
		return true, false
	}
	// BYTE and CHAR interconvert freely.
	if (t.Kind == KindByte && target.Kind == KindChar) ||
		(t.Kind == KindChar && target.Kind == KindByte) {
		return true, false
	}
	// BYTE widens losslessly to CARD/INT.
	if t.Is8Bit() && target.Is16Bit() {
		return true, false
	}
	// CARD/INT narrow to BYTE by truncation -- allowed, with a warning.
	if t.Is16Bit() && target.Is8Bit() {
		return true, true
	}
	// CARD/INT interconvert (same width, no value-range guarantee).
	if t.Is16Bit() && target.Is16Bit() {
		return true, false
	}
	return false, false
}

// Widen computes the result type of a binary arithmetic/bitwise operation
// applied to operands of type a and b, per Section 4.3: if either operand
// is 16-bit both are widened; INT only survives if both operands are INT,
// otherwise the 16-bit result is CARD.
func Widen(a, b Type) Type {
	if !a.Is16Bit() && !b.Is16Bit() {
		return Byte
	}
	if a.Kind == KindInt && b.Kind == KindInt {
		return Int
	}
	return Card
}
