package ui

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Mohsinsiddi/w3gate/internal/chain"
	"github.com/Mohsinsiddi/w3gate/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompterAnswers(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" yes \n", true},
		{"n\n", false},
		{"\n", false},
		{"sure\n", false},
		{"y", true},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		p := NewPrompter(strings.NewReader(tt.input), &out)
		ok, err := p.Approve(context.Background(), wallet.Approval{Kind: wallet.ApproveConnect, Account: weth})
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, ok, "input %q", tt.input)
		assert.Contains(t, out.String(), "Connect account")
	}
}

func TestPrompterHonoursContext(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	p := NewPrompter(r, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	ok, err := p.Approve(ctx, wallet.Approval{Kind: wallet.ApproveConnect})
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The line typed after the cancelled prompt answers the next one.
	go func() { _, _ = w.Write([]byte("y\n")) }()
	ok, err = p.Approve(context.Background(), wallet.Approval{Kind: wallet.ApproveConnect})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestApprovalQuestion(t *testing.T) {
	n, err := chain.NewRegistry(nil).GetByName("base")
	require.NoError(t, err)
	factory := common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")

	assert.Equal(t, "Switch 0xC02a…6Cc2 to Base (chain 8453)?",
		ApprovalQuestion(wallet.Approval{Kind: wallet.ApproveSwitch, Account: weth, Network: n}))

	q := ApprovalQuestion(wallet.Approval{
		Kind: wallet.ApproveSend, Account: weth, Network: n, To: &factory,
		Data: []byte{0xa1, 0x67, 0x12, 0x95, 0, 0},
	})
	assert.Contains(t, q, factory.Hex())
	assert.Contains(t, q, "on Base")
	assert.Contains(t, q, "selector 0xa1671295, 6 bytes")
}
