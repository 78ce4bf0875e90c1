package common

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"reflect"
	"regexp"

	"github.com/pkg/errors"
)

var ErrEmptyVaultKey = errors.New("vault key must not be empty")

var encValueRegexp = regexp.MustCompile(`^ENC\((.+)\)$`)

// Vault encrypts connection credentials at rest with AES-256-GCM.
// A token is base64(nonce || ciphertext || tag).
type Vault struct {
	gcm cipher.AEAD
}

// NewVault builds a vault from a base64 encoded 32 byte key, or from any
// passphrase which is hashed with SHA-256.
func NewVault(key string) (*Vault, error) {
	if key == "" {
		return nil, ErrEmptyVaultKey
	}

	var raw []byte
	decoded, err := base64.StdEncoding.DecodeString(key)
	if err == nil && len(decoded) == 32 {
		raw = decoded
	} else {
		sum := sha256.Sum256([]byte(key))
		raw = sum[:]
	}

	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, errors.Wrap(err, "create aes cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "create gcm")
	}
	return &Vault{gcm: gcm}, nil
}

func (v *Vault) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, v.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", NewCryptoError(err, "generate nonce")
	}
	sealed := v.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (v *Vault) Decrypt(token string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", NewCryptoError(nil, "credential token is not valid base64")
	}
	nonceSize := v.gcm.NonceSize()
	if len(data) < nonceSize+v.gcm.Overhead() {
		return "", NewCryptoError(nil, "credential token is too short")
	}
	plain, err := v.gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", NewCryptoError(nil, "credential token failed authentication")
	}
	return string(plain), nil
}

// DecryptValue resolves a config value written as ENC(token); other values
// are returned unchanged.
func (v *Vault) DecryptValue(value string) (string, error) {
	match := encValueRegexp.FindStringSubmatch(value)
	if match == nil {
		return value, nil
	}
	return v.Decrypt(match[1])
}

// DecryptConfig walks the string fields of the struct pointed to by ptr and
// replaces every ENC(token) value with its plaintext.
func (v *Vault) DecryptConfig(ptr interface{}) error {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return errors.Errorf("expect pointer to struct, got %T", ptr)
	}
	rv = rv.Elem()
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		if field.Kind() != reflect.String || !field.CanSet() {
			continue
		}
		plain, err := v.DecryptValue(field.String())
		if err != nil {
			return errors.Wrapf(err, "field %s", rv.Type().Field(i).Name)
		}
		field.SetString(plain)
	}
	return nil
}
