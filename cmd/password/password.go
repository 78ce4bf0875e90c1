package password

import (
	"fmt"
	"os"
	"path"
	"syscall"

	"github.com/MakeNowJust/heredoc"
	"github.com/dbroute/dbroute/common"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

var passwordRules = heredoc.Doc(`
	Password must be at least 8 characters long.
	Password must contain at least three character categories among the following:
	* Uppercase characters (A-Z)
	* Lowercase characters (a-z)
	* Digits (0-9)
	* Special characters (~!@#$%^&*_-+=|\(){}[]:;"'<>,.?/)`)

// UserFile returns the hash file of username under the conf directory.
// Unknown users need a role to get a new file.
func UserFile(confDir, username, role string) (string, error) {
	if username == common.DefaultAdminName {
		return path.Join(confDir, "password"), nil
	}
	if userinfo, err := common.GetUserInfo(username); err == nil {
		return userinfo.UserFile, nil
	}
	if role != common.OPERATOR && role != common.GUEST {
		return "", errors.Errorf("user %s doesn't exist, role must be %s or %s to create it", username, common.OPERATOR, common.GUEST)
	}
	if !common.ValidIdentifier(username) {
		return "", errors.Errorf("invalid user name %s", username)
	}
	return path.Join(confDir, "users", fmt.Sprintf("%s.%s", username, role)), nil
}

func WritePassword(file, password string) error {
	if err := common.VerifyPassword(password); err != nil {
		return err
	}
	hash, err := common.HashPassword(password)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(path.Dir(file), 0750); err != nil {
		return errors.Wrap(err, "")
	}
	return errors.Wrap(os.WriteFile(file, []byte(hash), 0600), "")
}

func PasswordHandle(cwd, username, role string) {
	confDir := path.Join(cwd, "conf")
	common.LoadUsers(confDir)
	fmt.Println(passwordRules)

	if username == "" {
		fmt.Printf("\nEnter username:")
		_, _ = fmt.Scanf("%s", &username)
	}
	file, err := UserFile(confDir, username, role)
	if err != nil {
		fmt.Printf("\nGet user info fail: %v\n", err)
		return
	}
	fmt.Printf("\nEnter password for [%s]: ", username)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Printf("\nEnter password fail: %v\n", err)
		return
	}

	fmt.Printf("\nReenter password for [%s]: ", username)
	dupPassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Printf("\nReenter password fail: %v\n", err)
		return
	}

	if string(bytePassword) != string(dupPassword) {
		fmt.Println("\nPassword mismatch")
		return
	}

	if err = WritePassword(file, string(bytePassword)); err != nil {
		fmt.Printf("\nSet password for [%s] fail: %v\n", username, err)
		return
	}
	fmt.Printf("\nSet password for [%s] success\n", username)
}
