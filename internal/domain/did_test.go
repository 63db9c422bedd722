package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDID(t *testing.T) {
	tests := []struct {
		name     string
		address  string
		chain    Chain
		expected DID
	}{
		{
			name:     "ethereum mainnet address",
			address:  "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb",
			chain:    ChainEthereumMainnet,
			expected: DID("did:pkh:eip155:1:0x742d35cc6634c0532925a3b844bc9e7595f0beb"),
		},
		{
			name:     "local ganache address uppercase",
			address:  "0x396343362be2A4dA1cE0C1C210945346fb82Aa49",
			chain:    ChainGanacheLocal,
			expected: DID("did:pkh:eip155:1337:0x396343362be2a4da1ce0c1c210945346fb82aa49"),
		},
		{
			name:     "chain built from id",
			address:  "0x396343362be2A4dA1cE0C1C210945346fb82Aa49",
			chain:    NewChain(11155111),
			expected: DID("did:pkh:eip155:11155111:0x396343362be2a4da1ce0c1c210945346fb82aa49"),
		},
		{
			name:     "empty address",
			address:  "",
			chain:    ChainEthereumMainnet,
			expected: DID("did:pkh:eip155:1:"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewDID(tt.address, tt.chain)
			assert.Equal(t, tt.expected, result)
			assert.Equal(t, string(tt.expected), result.String())
		})
	}
}
