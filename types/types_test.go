package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWidth(t *testing.T) {
	assert.Equal(t, 1, Byte.Width())
	assert.Equal(t, 1, Char.Width())
	assert.Equal(t, 2, Card.Width())
	assert.Equal(t, 2, Int.Width())
	assert.Equal(t, 2, Pointer(Byte).Width())
	assert.Equal(t, 4, ByteArray(4).Width())
	assert.Equal(t, 8, CardArray(4).Width())
}

func TestAssignableByteCharInterconvert(t *testing.T) {
	ok, trunc := Byte.AssignableTo(Char)
	assert.True(t, ok)
	assert.False(t, trunc)

	ok, trunc = Char.AssignableTo(Byte)
	assert.True(t, ok)
	assert.False(t, trunc)
}

func TestAssignableWidening(t *testing.T) {
	ok, trunc := Byte.AssignableTo(Card)
	assert.True(t, ok)
	assert.False(t, trunc)
}

func TestAssignableNarrowingWarns(t *testing.T) {
	ok, trunc := Card.AssignableTo(Byte)
	assert.True(t, ok)
	assert.True(t, trunc)
}

func TestWidenBothInt(t *testing.T) {
	assert.Equal(t, Int, Widen(Int, Int))
}

func TestWidenMixedFavorsCard(t *testing.T) {
	assert.Equal(t, Card, Widen(Int, Card))
	assert.Equal(t, Card, Widen(Byte, Int))
}

func TestWidenBoth8Bit(t *testing.T) {
	assert.Equal(t, Byte, Widen(Byte, Byte))
}

func TestPointerEquality(t *testing.T) {
	p1 := Pointer(Byte)
	p2 := Pointer(Byte)
	assert.True(t, p1.Equal(p2))
	assert.False(t, p1.Equal(Pointer(Card)))
}
