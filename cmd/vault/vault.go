package vault

import (
	"fmt"
	"os"
	"syscall"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/config"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

const (
	ActionEncrypt = "encrypt"
	ActionDecrypt = "decrypt"
)

// LoadVault builds the vault from the key of confFile, DBROUTE_VAULT_KEY
// wins when set.
func LoadVault(confFile string) (*common.Vault, error) {
	key := os.Getenv(config.ENV_VAULT_KEY)
	if key == "" && confFile != "" {
		if err := config.ParseConfigFile(confFile, ""); err != nil {
			return nil, err
		}
		key = config.GlobalConfig.Vault.Key
	}
	return common.NewVault(key)
}

// Transform encrypts or decrypts value. Decrypt accepts a bare token as
// well as ENC(token).
func Transform(v *common.Vault, action, value string) (string, error) {
	switch action {
	case ActionEncrypt:
		return v.Encrypt(value)
	case ActionDecrypt:
		return v.DecryptValue(fmt.Sprintf("ENC(%s)", trimEnc(value)))
	}
	return "", errors.Errorf("unknown action %s", action)
}

func trimEnc(value string) string {
	if len(value) > 5 && value[:4] == "ENC(" && value[len(value)-1] == ')' {
		return value[4 : len(value)-1]
	}
	return value
}

func VaultHandle(confFile, action, value string) {
	v, err := LoadVault(confFile)
	if err != nil {
		fmt.Printf("load vault key fail: %v\n", err)
		return
	}
	if value == "" {
		fmt.Printf("Enter value to %s: ", action)
		input, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			fmt.Printf("read value fail: %v\n", err)
			return
		}
		value = string(input)
	}
	out, err := Transform(v, action, value)
	if err != nil {
		fmt.Printf("%s fail: %v\n", action, err)
		return
	}
	if action == ActionEncrypt {
		fmt.Printf("ENC(%s)\n", out)
		return
	}
	fmt.Println(out)
}
