package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFencedBlock(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"json fence", "Here you go:\n```json\n{\"a\": 1}\n```\nthanks", `{"a": 1}`, true},
		{"upper case tag", "```JSON\n{\"a\": 1}\n```", `{"a": 1}`, true},
		{"plain fence", "```\n{\"b\": 2}\n```", `{"b": 2}`, true},
		{"first fence wins", "```json\n{}\n```\n```json\n{\"x\":1}\n```", `{}`, true},
		{"no fence", `{"a": 1}`, "", false},
		{"unterminated", "```json\n{\"a\": 1}", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FencedBlock(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBareObject(t *testing.T) {
	got, ok := BareObject("  {\"a\": 1}\n")
	assert.True(t, ok)
	assert.Equal(t, `{"a": 1}`, got)

	_, ok = BareObject("Sure! {\"a\": 1}")
	assert.False(t, ok)

	_, ok = BareObject("")
	assert.False(t, ok)
}
