package totp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 6238 appendix B, SHA1 seed "12345678901234567890", truncated to 6 digits.
func TestGenerateAt_RFC6238Vectors(t *testing.T) {
	const seed = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"
	tests := []struct {
		unix int64
		want string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1111111111, "050471"},
		{1234567890, "005924"},
		{2000000000, "279037"},
		{20000000000, "353130"},
	}
	for _, tt := range tests {
		got, err := GenerateAt(seed, time.Unix(tt.unix, 0))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.Code, "t=%d", tt.unix)
	}
}

func TestGenerateAt_ShortSeedReference(t *testing.T) {
	const seed = "JBSWY3DPEHPK3PXP"

	c0, err := GenerateAt(seed, time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, "282760", c0.Code)
	assert.Equal(t, 30, c0.RemainingSeconds)

	c29, err := GenerateAt(seed, time.Unix(29, 0))
	require.NoError(t, err)
	assert.Equal(t, c0.Code, c29.Code, "same window must give the same code")
	assert.Equal(t, 1, c29.RemainingSeconds)

	c30, err := GenerateAt(seed, time.Unix(30, 0))
	require.NoError(t, err)
	assert.Equal(t, "996554", c30.Code)
	assert.NotEqual(t, c0.Code, c30.Code)
}

func TestGenerate_ShapeAndRemaining(t *testing.T) {
	for _, seed := range []string{"HXDMVJECJJWSRB3HWIZR4IFUGFTMXBOZ", "JBSWY3DPEHPK3PXP", "jbsw y3dp ehpk 3pxp"} {
		c, err := Generate(seed)
		require.NoError(t, err)
		require.Len(t, c.Code, Digits)
		for _, r := range c.Code {
			assert.True(t, r >= '0' && r <= '9', "non-digit in %q", c.Code)
		}
		assert.GreaterOrEqual(t, c.RemainingSeconds, 1)
		assert.LessOrEqual(t, c.RemainingSeconds, Period)
	}
}

func TestGenerate_InvalidSecret(t *testing.T) {
	for _, seed := range []string{"", "   ", "invalid!@#$%", "18"} {
		_, err := Generate(seed)
		require.ErrorIs(t, err, ErrInvalidSecret, "seed %q", seed)
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		seed string
		want bool
	}{
		{"JBSWY3DPEHPK3PXP", true},
		{"HXDMVJECJJWSRB3HWIZR4IFUGFTMXBOZ", true},
		{"JBSWY3DPEHPK3PXP====", true},
		{"jbswy3dpehpk3pxp", true},
		{"", false},
		{"invalid!@#$%", false},
		{"18", false},
		{"JBS", true},
		{"JBSWY3D", true},
		{"J", false},
		{"JBS=A", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateFormat(tt.seed), "seed %q", tt.seed)
	}
}

func TestDecodeSeed_PartialTrailingBits(t *testing.T) {
	tests := []struct {
		seed string
		want []byte
	}{
		{"JBS", []byte("H")},
		{"JBSWY3DP", []byte("Hello")},
		{"JBSWY3DPEE", []byte("Hello!")},
		{"jbsw y3dp", []byte("Hello")},
	}
	for _, tt := range tests {
		got, err := decodeSeed(tt.seed)
		require.NoError(t, err, tt.seed)
		assert.Equal(t, tt.want, got, tt.seed)
	}

	_, err := GenerateAt("JBS", time.Unix(59, 0))
	require.NoError(t, err)
}
