package common

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadUsers(t *testing.T) {
	dir := t.TempDir()
	adminHash, err := HashPassword("Admin@123")
	require.NoError(t, err)
	opHash, err := HashPassword("Oper@1234")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path.Join(dir, "password"), []byte(adminHash+"\n"), 0600))
	require.NoError(t, os.MkdirAll(path.Join(dir, "users"), 0755))
	require.NoError(t, os.WriteFile(path.Join(dir, "users", "alice.operator"), []byte(opHash), 0600))
	require.NoError(t, os.WriteFile(path.Join(dir, "users", "bob.root"), []byte(opHash), 0600))

	LoadUsers(dir)
	info, err := Authenticate(DefaultAdminName, "Admin@123")
	require.NoError(t, err)
	assert.Equal(t, ADMIN, info.Policy)

	info, err = Authenticate("alice", "Oper@1234")
	require.NoError(t, err)
	assert.Equal(t, OPERATOR, info.Policy)

	_, err = Authenticate("alice", "wrong")
	assert.Error(t, err)
	_, err = GetUserInfo("bob")
	assert.Error(t, err)
}
