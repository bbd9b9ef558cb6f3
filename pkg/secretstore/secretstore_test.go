package secretstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuestmarket/kuest-go/clob/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(OpenOptions{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCredsRoundTrip(t *testing.T) {
	s := openTestStore(t)

	_, found, err := s.LoadCreds()
	require.NoError(t, err)
	assert.False(t, found)

	want := types.APICreds{Key: "k", Secret: "c2Vj", Passphrase: "p"}
	require.NoError(t, s.SaveCreds(want))

	got, found, err := s.LoadCreds()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestWalletKeysRoundTrip(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SavePrivateKey("  deadbeef  "))
	key, found, err := s.LoadPrivateKey()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "deadbeef", key)

	require.NoError(t, s.SaveCustodyAddress("0x1111111111111111111111111111111111111111"))
	addr, found, err := s.LoadCustodyAddress()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", addr)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(OpenOptions{})
	assert.Error(t, err)
}

func TestParseKey(t *testing.T) {
	hexKey := "0x000102030405060708090a0b0c0d0e0f000102030405060708090a0b0c0d0e0f"
	b, err := ParseKey(hexKey)
	require.NoError(t, err)
	assert.Len(t, b, 32)

	b, err = ParseKey("")
	require.NoError(t, err)
	assert.Nil(t, b)

	_, err = ParseKey("dG9vc2hvcnQ=")
	assert.Error(t, err)

	_, err = ParseKey("deadbeef")
	assert.Error(t, err)
}
