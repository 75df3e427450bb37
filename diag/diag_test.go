package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	e := New(KindType, 4, 9, "cannot assign %s to %s", "CARD", "BYTE ARRAY")
	assert.Equal(t, "type error at line 4, column 9: cannot assign CARD to BYTE ARRAY", e.Error())
}

func TestUnpositionedErrorFormatting(t *testing.T) {
	e := NewUnpositioned(KindLayout, "code and data exceed RAM base 0x%04X", 0x2000)
	assert.Equal(t, "layout error: code and data exceed RAM base 0x2000", e.Error())
}

func TestWarningsAccumulate(t *testing.T) {
	var w Warnings
	assert.True(t, w.Empty())
	w.Add(12, "narrowing CARD to BYTE truncates high byte")
	w.Add(13, "narrowing INT to BYTE truncates high byte")
	assert.False(t, w.Empty())
	items := w.Items()
	assert.Len(t, items, 2)
	assert.Equal(t, 12, items[0].Line)
}
