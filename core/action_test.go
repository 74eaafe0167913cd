package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseActionType(t *testing.T) {
	tests := []struct {
		in   string
		want ActionType
	}{
		{"add", ActionAdd},
		{"deploy", ActionAdd},
		{"Add_Item", ActionAdd},
		{"set quantity", ActionSetQuantity},
		{"checkout", ActionProcess},
		{"LIST-RESOURCES", ActionListResources},
		{"summary", ActionSummarize},
		{"describe", ActionClassify},
		{"", ActionGeneral},
		{"launch the missiles", ActionGeneral},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseActionType(tt.in), "input %q", tt.in)
	}
}

func TestActionPayloadAccessors(t *testing.T) {
	a := Action{Type: ActionSetQuantity, Payload: map[string]any{
		"item":     " web server ",
		"quantity": float64(3),
		"count":    2,
	}}

	assert.Equal(t, "web server", a.PayloadString("item"))
	assert.Empty(t, a.PayloadString("missing"))

	q, ok := a.PayloadInt("quantity")
	assert.True(t, ok)
	assert.Equal(t, 3, q)

	c, ok := a.PayloadInt("count")
	assert.True(t, ok)
	assert.Equal(t, 2, c)

	_, ok = a.PayloadInt("item")
	assert.False(t, ok)
}

func TestGeneralActionCarriesMessage(t *testing.T) {
	a := GeneralAction("what can you do")
	assert.Equal(t, ActionGeneral, a.Type)
	assert.Equal(t, "what can you do", a.PayloadString("message"))
}
