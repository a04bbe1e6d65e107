package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "a", firstNonEmpty("a", "b"))
	assert.Equal(t, "b", firstNonEmpty("", "b"))
	assert.Equal(t, "", firstNonEmpty("", ""))
	assert.Equal(t, "", firstNonEmpty())
}

func TestSplitDisplayName(t *testing.T) {
	tests := []struct {
		in        string
		wantFirst string
		wantLast  string
	}{
		{in: "Ada Lovelace", wantFirst: "Ada", wantLast: "Lovelace"},
		{in: "Ada King Lovelace", wantFirst: "Ada", wantLast: "King Lovelace"},
		{in: "Ada", wantFirst: "Ada", wantLast: "Ada"},
		{in: "  ", wantFirst: "User", wantLast: "Account"},
		{in: "", wantFirst: "User", wantLast: "Account"},
	}

	for _, tt := range tests {
		first, last := splitDisplayName(tt.in)
		assert.Equal(t, tt.wantFirst, first)
		assert.Equal(t, tt.wantLast, last)
	}
}
