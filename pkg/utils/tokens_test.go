package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	token, err := LoadSessionToken("test")
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, SaveSessionToken("test", "signed.jwt.value"))

	info, err := os.Stat(filepath.Join(home, ".locum-dental", "session-test.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	token, err = LoadSessionToken("test")
	require.NoError(t, err)
	assert.Equal(t, "signed.jwt.value", token)

	// Environments are kept apart
	other, err := LoadSessionToken("prod")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, DeleteSessionToken("test"))
	require.NoError(t, DeleteSessionToken("test"))

	token, err = LoadSessionToken("test")
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestGmailTokenFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	loaded, err := LoadTokenFromFile("test")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, SaveTokenToFile("test", &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: expiry}))

	loaded, err = LoadTokenFromFile("test")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "access", loaded.AccessToken)
	assert.Equal(t, "refresh", loaded.RefreshToken)
	assert.True(t, expiry.Equal(loaded.Expiry))

	require.NoError(t, DeleteTokenFile("test"))
	loaded, err = LoadTokenFromFile("test")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestCorruptTokenFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, os.MkdirAll(filepath.Join(home, ".locum-dental"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".locum-dental", "session-test.json"), []byte("{not json"), 0600))

	_, err := LoadSessionToken("test")
	assert.Error(t, err)
}

func TestMissingScopes(t *testing.T) {
	assert.NoError(t, missingScopes([]string{"openid", ScopeGmailSend}))
	assert.Error(t, missingScopes([]string{"openid"}))
}
