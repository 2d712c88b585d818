package sqlstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mliu/whisper/internal/apperrors"
	"github.com/mliu/whisper/internal/models"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := New("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestUser(t *testing.T, s *SQLStore, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com", Password: "hashed"}
	require.NoError(t, s.CreateUser(user))
	return user
}

func TestForeignKeysEnforcedOnEveryConnection(t *testing.T) {
	s, err := New("sqlite3", filepath.Join(t.TempDir(), "whisper.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	alice := createTestUser(t, s, "alice")

	// Drop idle connections so the next statement runs on a connection the
	// pool opens fresh, not the one New used.
	s.db.SetMaxIdleConns(0)

	err = s.InsertDirect(alice.ID, 9999, sealed("deadbeef"))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_foreign_keys=on", sqliteDSN(":memory:"))
	assert.Equal(t, "whisper.db?_foreign_keys=on", sqliteDSN("whisper.db"))
	assert.Equal(t, "whisper.db?cache=shared&_foreign_keys=on", sqliteDSN("whisper.db?cache=shared"))
	assert.Equal(t, "whisper.db?_foreign_keys=off", sqliteDSN("whisper.db?_foreign_keys=off"))
}

func sealed(content string) *models.SealedMessage {
	return &models.SealedMessage{
		IV:      "00112233445566778899aabb",
		Content: content,
		Tag:     "00112233445566778899aabbccddeeff",
	}
}
