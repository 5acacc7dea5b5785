package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReferenceCanonical(t *testing.T) {
	id, err := ParseReference("a1b2c3d4e5f6a1b2c3d4e5f6")
	require.NoError(t, err)

	assert.False(t, id.IsLegacy())
	canonical, ok := id.Canonical()
	assert.True(t, ok)
	assert.Equal(t, "a1b2c3d4e5f6a1b2c3d4e5f6", canonical)
	_, ok = id.Legacy()
	assert.False(t, ok)
}

func TestParseReferenceLegacy(t *testing.T) {
	id, err := ParseReference("7")
	require.NoError(t, err)

	assert.True(t, id.IsLegacy())
	legacy, ok := id.Legacy()
	assert.True(t, ok)
	assert.EqualValues(t, 7, legacy)
	_, ok = id.Canonical()
	assert.False(t, ok)
	assert.Equal(t, "7", id.String())
}

func TestParseReferenceTrimsWhitespace(t *testing.T) {
	id, err := ParseReference("  42 ")
	require.NoError(t, err)
	assert.True(t, id.IsLegacy())
}

func TestParseReferenceRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"0",
		"-3",
		"not-a-tenant",
		"A1B2C3D4E5F6A1B2C3D4E5F6",     // uppercase hex is not canonical
		"a1b2c3d4e5f6a1b2c3d4e5",       // too short
		"a1b2c3d4e5f6a1b2c3d4e5f6aa",   // too long
		"g1b2c3d4e5f6a1b2c3d4e5f6",     // non-hex character
		"a1b2c3d4e5f6a1b2c3d4e5f6 xyz", // trailing garbage
	}
	for _, raw := range cases {
		_, err := ParseReference(raw)
		assert.Error(t, err, "expected %q to be rejected", raw)
	}
}

func TestIsCanonicalID(t *testing.T) {
	assert.True(t, IsCanonicalID("0123456789abcdef01234567"))
	assert.False(t, IsCanonicalID("0123456789abcdef0123456"))
	assert.False(t, IsCanonicalID("0123456789ABCDEF01234567"))
}

func TestProviderConfigReady(t *testing.T) {
	cfg := ProviderConfig{Enabled: true, AccountID: "acct", PropertyID: "prop"}
	assert.True(t, cfg.Ready())

	assert.False(t, ProviderConfig{Enabled: false, AccountID: "acct", PropertyID: "prop"}.Ready())
	assert.False(t, ProviderConfig{Enabled: true, PropertyID: "prop"}.Ready())
	assert.False(t, ProviderConfig{Enabled: true, AccountID: "acct"}.Ready())
}
