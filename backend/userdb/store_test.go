package userdb_test

import (
	"os"
	"path/filepath"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-pam/backend/userdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func mustHash(t *testing.T, password string) string {
	t.Helper()
	h, err := userdb.HashPasswordWithCost(password, bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestParseUsersFile(t *testing.T) {
	hash := mustHash(t, "correct")
	data := []byte(`
banner: "Authorized use only"
services: [login, sshd]
users:
  - name: alice
    password_hash: "` + hash + `"
    uid: "1000"
    gid: "1000"
    home: /home/alice
    shell: /bin/bash
  - name: bob
    password_hash: "` + hash + `"
    home: /home/bob
    shell: /bin/zsh
    expired: true
    deny_env: [SHELL]
`)

	store, err := userdb.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, store.Names())

	bob, ok := store.Lookup("bob")
	require.True(t, ok)
	assert.True(t, bob.Expired)
	assert.Equal(t, []string{"SHELL"}, bob.DenyEnv)

	acc, err := store.LookupAccount("alice")
	require.NoError(t, err)
	assert.Equal(t, "/home/alice", acc.HomeDir)
	assert.Equal(t, "/bin/bash", acc.Shell)
	assert.Equal(t, "1000", acc.UID)

	_, err = store.LookupAccount("carol")
	require.Error(t, err)
	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryNotFound, richErr.Category)
}

func TestParseRejectsInvalidRecords(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "missing hash",
			data: "users:\n  - name: alice\n    home: /home/alice\n    shell: /bin/sh\n",
		},
		{
			name: "bad name",
			data: "users:\n  - name: Alice Smith\n    password_hash: x\n    home: /home/a\n    shell: /bin/sh\n",
		},
		{
			name: "duplicate",
			data: "users:\n  - {name: a, password_hash: x, home: /h, shell: /s}\n  - {name: a, password_hash: x, home: /h, shell: /s}\n",
		},
		{
			name: "malformed yaml",
			data: "users: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := userdb.Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadUsersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte("users:\n  - {name: alice, password_hash: x, home: /home/alice, shell: /bin/sh}\n"), 0o600))

	store, err := userdb.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, store.Names())

	_, err = userdb.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestHashPassword(t *testing.T) {
	_, err := userdb.HashPasswordWithCost("", bcrypt.MinCost)
	assert.ErrorIs(t, err, userdb.ErrNoEmptyString)

	hash := mustHash(t, "securePassword123!")
	assert.NoError(t, userdb.ComparePasswordAndHash("securePassword123!", hash))

	err = userdb.ComparePasswordAndHash("nope", hash)
	assert.Equal(t, userdb.ErrMismatchedHashAndPassword, err)

	err = userdb.ComparePasswordAndHash("nope", "not-a-hash")
	assert.Error(t, err)
	assert.NotEqual(t, userdb.ErrMismatchedHashAndPassword, err)
}
