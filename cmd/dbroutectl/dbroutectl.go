package main

/*
dbroutectl migrate -c /etc/dbroute/conf/migrate.hjson
dbroutectl password -u alice -r operator
dbroutectl vault encrypt -c /etc/dbroute/conf/dbroute.hjson
dbroutectl vault decrypt "ENC(...)"
*/

import (
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/dbroute/dbroute/cmd/migrate"
	"github.com/dbroute/dbroute/cmd/password"
	"github.com/dbroute/dbroute/cmd/vault"
	"github.com/dbroute/dbroute/log"
)

var (
	migrateCmd = kingpin.Command("migrate", "migrate connections, routes and jobs from one persistence to another")
	m_conf     = migrateCmd.Flag("conf", "migrate config file path").Default("/etc/dbroute/conf/migrate.hjson").Short('c').String()

	passCmd = kingpin.Command("password", "set the password of a user")
	p_cwd   = passCmd.Flag("cwd", "current working directory").Short('p').Default("/etc/dbroute").String()
	p_user  = passCmd.Flag("user", "user name, dbroute is the admin").Short('u').String()
	p_role  = passCmd.Flag("role", "role of a new user: operator or guest").Short('r').Default("").Enum("", "operator", "guest")

	vaultCmd  = kingpin.Command("vault", "encrypt or decrypt a credential with the vault key")
	v_encrypt = vaultCmd.Command("encrypt", "encrypt a value")
	ve_conf   = v_encrypt.Flag("conf", "config file path").Short('c').Default("/etc/dbroute/conf/dbroute.hjson").String()
	ve_value  = v_encrypt.Arg("value", "plain value, prompted when empty").String()
	v_decrypt = vaultCmd.Command("decrypt", "decrypt a token")
	vd_conf   = v_decrypt.Flag("conf", "config file path").Short('c').Default("/etc/dbroute/conf/dbroute.hjson").String()
	vd_value  = v_decrypt.Arg("value", "token or ENC(token)").String()
)

func main() {
	log.InitLoggerConsole()
	command := kingpin.Parse()
	firstCmd := strings.Split(command, " ")[0]
	switch firstCmd {
	case "migrate":
		migrate.MigrateHandle(*m_conf)
	case "password":
		password.PasswordHandle(*p_cwd, *p_user, *p_role)
	case "vault":
		secondCmd := strings.Split(command, " ")[1]
		if secondCmd == vault.ActionEncrypt {
			vault.VaultHandle(*ve_conf, vault.ActionEncrypt, *ve_value)
		} else if secondCmd == vault.ActionDecrypt {
			vault.VaultHandle(*vd_conf, vault.ActionDecrypt, *vd_value)
		}
	}
}
