package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixedMessages(t *testing.T) {
	tests := []struct {
		name   string
		render func(string) string
		prefix string
	}{
		{"info", Info, "ℹ"},
		{"hint", Hint, "→"},
		{"retry", Retry, "↻"},
		{"success", Success, "✓"},
		{"warn", Warn, "⚠"},
		{"err", Err, "✗"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.render("test message")
			assert.Contains(t, out, tt.prefix)
			assert.Contains(t, out, "test message")
		})
	}
}

func TestPlainStylesKeepText(t *testing.T) {
	assert.Contains(t, Addr("0xabc"), "0xabc")
	assert.Contains(t, Val("42"), "42")
	assert.Contains(t, Meta("meta"), "meta")
	assert.Contains(t, ChainName("base"), "base")
}

func TestTruncateAddr(t *testing.T) {
	assert.Equal(t, "0x1F98…F984", TruncateAddr("0x1F98431c8aD98523631AE4a59f267346ea31F984"))
	assert.Equal(t, "0x1234", TruncateAddr("0x1234"))
}
