package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"kementrian komunikasi dan digital": "Kementrian Komunikasi Dan Digital",
		"sekretaris jenderal DPR":           "Sekretaris Jenderal Dpr",
		"  badan   gizi nasional ":          "Badan Gizi Nasional",
		"":                                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, TitleCase(in), in)
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	hashed, err := HashPassword("rahasia123")
	require.NoError(t, err)

	assert.NotEqual(t, "rahasia123", hashed)
	assert.True(t, CheckPassword(hashed, "rahasia123"))
	assert.False(t, CheckPassword(hashed, "rahasia124"))
}

func TestTokenFingerprint(t *testing.T) {
	a := TokenFingerprint("token-a")
	assert.Len(t, a, 64)
	assert.Equal(t, a, TokenFingerprint("token-a"))
	assert.NotEqual(t, a, TokenFingerprint("token-b"))
}
