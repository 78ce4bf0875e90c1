package common

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVaultKey = "dGVzdC1rZXktZm9yLXVuaXQtdGVzdHMtMzItYnl0ZXM="

func TestNewVault(t *testing.T) {
	_, err := NewVault("")
	assert.ErrorIs(t, err, ErrEmptyVaultKey)

	v, err := NewVault(testVaultKey)
	require.NoError(t, err)
	assert.NotNil(t, v)

	v, err = NewVault("just a passphrase")
	require.NoError(t, err)
	assert.NotNil(t, v)
}

func TestVaultRoundTrip(t *testing.T) {
	v, err := NewVault(testVaultKey)
	require.NoError(t, err)

	for _, plain := range []string{"", "Oracle@123#?456!", "pässwörd", "a'b\"c;--"} {
		token, err := v.Encrypt(plain)
		require.NoError(t, err)
		got, err := v.Decrypt(token)
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	}

	t1, _ := v.Encrypt("same")
	t2, _ := v.Encrypt("same")
	assert.NotEqual(t, t1, t2)
}

func TestVaultTampered(t *testing.T) {
	v, err := NewVault(testVaultKey)
	require.NoError(t, err)

	token, err := v.Encrypt("secret")
	require.NoError(t, err)
	raw, _ := base64.StdEncoding.DecodeString(token)
	raw[len(raw)-1] ^= 0x01
	_, err = v.Decrypt(base64.StdEncoding.EncodeToString(raw))
	assert.True(t, IsKind(err, KindCrypto))

	_, err = v.Decrypt("not base64 at all!")
	assert.True(t, IsKind(err, KindCrypto))

	_, err = v.Decrypt(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.True(t, IsKind(err, KindCrypto))

	other, _ := NewVault("another key")
	_, err = other.Decrypt(token)
	assert.True(t, IsKind(err, KindCrypto))
}

func TestVaultDecryptConfig(t *testing.T) {
	v, err := NewVault(testVaultKey)
	require.NoError(t, err)
	token, _ := v.Encrypt("User@123")

	conf := struct {
		User     string
		Password string
		Port     int
	}{"root", "ENC(" + token + ")", 3306}
	require.NoError(t, v.DecryptConfig(&conf))
	assert.Equal(t, "User@123", conf.Password)
	assert.Equal(t, "root", conf.User)

	conf.Password = "ENC(garbage)"
	assert.Error(t, v.DecryptConfig(&conf))
}
