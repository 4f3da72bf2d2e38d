package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintAndParse(t *testing.T) {
	pair, err := MintTokens("soc-analyst", "operator", "s3cret", time.Hour, 24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := ParseClaims(pair.AccessToken, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "soc-analyst", claims.Subject)
	assert.Equal(t, "operator", claims.Role)
	assert.Equal(t, Issuer, claims.Issuer)
}

func TestParseClaims_Rejects(t *testing.T) {
	valid, err := MintToken("svc", "", "s3cret", time.Hour)
	require.NoError(t, err)
	expired, err := MintToken("svc", "", "s3cret", -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{name: "wrong secret", token: valid, secret: "other"},
		{name: "expired", token: expired, secret: "s3cret"},
		{name: "garbage", token: "not-a-token", secret: "s3cret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseClaims(tt.token, tt.secret)
			assert.Error(t, err)
		})
	}
}

func TestMintToken_EmptySecret(t *testing.T) {
	_, err := MintToken("svc", "", "", time.Hour)
	assert.Error(t, err)
}
