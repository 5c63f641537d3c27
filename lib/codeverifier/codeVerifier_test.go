package codeverifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChallenge(t *testing.T) {
	tests := []struct {
		name         string
		verifierData string
		challenge    string
	}{
		{
			name:         "hex verifier",
			verifierData: "05796efe18af079dc654bb88c68f5cd8b8a5d378e7cec8e9856258f95d3b0b5a",
			challenge:    "A-Y4cHhqIJi48r-V_cKdDRzlMJmC8zk_hlBBvOEE-A0",
		},
		{
			name:         "plain verifier",
			verifierData: "exampleHash",
			challenge:    "a4SPfcpynli7bwu--Wt2kOtp7WnyYfxoEOyM3r8TrFE",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVerifierFrom(tt.verifierData)
			method, challenge, err := v.CreateChallenge()
			assert.NoError(t, err)
			assert.Equal(t, "S256", method)
			assert.Equal(t, tt.challenge, challenge)
		})
	}
}

func TestNewVerifierLength(t *testing.T) {
	v, err := NewVerifier()
	assert.NoError(t, err)

	// RFC 7636 requires 43-128 chars
	assert.Len(t, v.GetValue(), 64)
	assert.Regexp(t, "^[0-9a-f]+$", v.GetValue())
}
