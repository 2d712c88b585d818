package sqlstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mliu/whisper/internal/apperrors"
	"github.com/mliu/whisper/internal/models"
)

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)

	created := createTestUser(t, s, "alice")
	assert.NotZero(t, created.ID)

	byName, err := s.GetUserByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
	assert.Equal(t, "alice@example.com", byName.Email)

	byID, err := s.GetUserByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	s := newTestStore(t)
	createTestUser(t, s, "alice")

	err := s.CreateUser(&models.User{Username: "alice", Email: "other@example.com", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeAlreadyExists, apperrors.CodeOf(err))
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetUserByUsername("nobody")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))

	_, err = s.GetUserByID(9999)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestSearchUsersMasksEmail(t *testing.T) {
	s := newTestStore(t)
	createTestUser(t, s, "charlie")
	createTestUser(t, s, "charlotte")
	createTestUser(t, s, "dave")

	users, err := s.SearchUsers("char")
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.NotContains(t, u.Email, u.Username+"@")
		assert.Contains(t, u.Email, "*")
	}
}
