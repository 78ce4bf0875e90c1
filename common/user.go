package common

import (
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
)

const (
	ADMIN    string = "admin"
	OPERATOR string = "operator"
	GUEST    string = "guest"

	DefaultAdminName = "dbroute"
)

type UserInfo struct {
	Policy   string
	Password string
	UserFile string
}

var UserMap map[string]UserInfo
var lock sync.Mutex

// LoadUsers reads the bcrypt hashes under configPath: "password" holds the
// admin, users/<name>.<operator|guest> the others.
func LoadUsers(configPath string) {
	lock.Lock()
	defer lock.Unlock()
	UserMap = make(map[string]UserInfo)
	userPath := path.Join(configPath, "users")
	entries, err := os.ReadDir(userPath)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}

			userfile := path.Join(userPath, entry.Name())
			userinfos := strings.Split(entry.Name(), ".")
			if len(userinfos) != 2 {
				continue
			}
			username := userinfos[0]
			policy := userinfos[1]
			if policy != GUEST && policy != OPERATOR {
				continue
			}
			password, err := os.ReadFile(userfile)
			if err == nil {
				UserMap[username] = UserInfo{
					Policy:   policy,
					Password: strings.TrimSpace(string(password)),
					UserFile: userfile,
				}
			}
		}
	}

	passwordFile := path.Join(configPath, "password")
	password, err := os.ReadFile(passwordFile)
	if err != nil {
		return
	}

	UserMap[DefaultAdminName] = UserInfo{
		Policy:   ADMIN,
		Password: strings.TrimSpace(string(password)),
		UserFile: passwordFile,
	}
}

func GetUserInfo(name string) (UserInfo, error) {
	lock.Lock()
	defer lock.Unlock()
	if userinfo, ok := UserMap[name]; ok {
		return userinfo, nil
	}
	return UserInfo{}, fmt.Errorf("user %s doesn't exist", name)
}

// Authenticate checks name and plain password against the loaded hashes.
func Authenticate(name, password string) (UserInfo, error) {
	info, err := GetUserInfo(name)
	if err != nil {
		return UserInfo{}, err
	}
	if !ComparePassword(info.Password, password) {
		return UserInfo{}, fmt.Errorf("password of user %s mismatch", name)
	}
	return info, nil
}
