package password

import (
	"path"
	"testing"

	"github.com/dbroute/dbroute/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePasswordAndLogin(t *testing.T) {
	confDir := t.TempDir()
	common.LoadUsers(confDir)

	_, err := UserFile(confDir, "alice", "")
	assert.Error(t, err)
	_, err = UserFile(confDir, "../alice", common.GUEST)
	assert.Error(t, err)

	file, err := UserFile(confDir, "alice", common.OPERATOR)
	require.NoError(t, err)
	assert.Equal(t, path.Join(confDir, "users", "alice.operator"), file)
	assert.Error(t, WritePassword(file, "short"))
	require.NoError(t, WritePassword(file, "Secret123!"))

	admin, err := UserFile(confDir, common.DefaultAdminName, "")
	require.NoError(t, err)
	require.NoError(t, WritePassword(admin, "Admin123!"))

	common.LoadUsers(confDir)
	info, err := common.Authenticate("alice", "Secret123!")
	require.NoError(t, err)
	assert.Equal(t, common.OPERATOR, info.Policy)
	info, err = common.Authenticate(common.DefaultAdminName, "Admin123!")
	require.NoError(t, err)
	assert.Equal(t, common.ADMIN, info.Policy)

	// known users keep their file whatever role is given
	file, err = UserFile(confDir, "alice", common.GUEST)
	require.NoError(t, err)
	assert.Equal(t, path.Join(confDir, "users", "alice.operator"), file)
}
