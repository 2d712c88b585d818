package sqlstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mliu/whisper/internal/apperrors"
)

func TestCreateGroupEnrollsCreator(t *testing.T) {
	s := newTestStore(t)
	alice := createTestUser(t, s, "alice")

	group, err := s.CreateGroup("book club", alice.ID)
	require.NoError(t, err)
	assert.NotZero(t, group.ID)
	assert.Equal(t, "book club", group.Name)
	assert.Equal(t, alice.ID, group.CreatedBy)
	assert.False(t, group.CreatedAt.IsZero())

	isMember, err := s.IsGroupMember(group.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, isMember)
}

func TestCreateGroupUnknownOwnerPersistsNothing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateGroup("orphan", 9999)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))

	isMember, err := s.IsGroupMember(1, 9999)
	require.NoError(t, err)
	assert.False(t, isMember)
}

func TestAddGroupMemberIdempotent(t *testing.T) {
	s := newTestStore(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")
	group, err := s.CreateGroup("book club", alice.ID)
	require.NoError(t, err)

	require.NoError(t, s.AddGroupMember(group.ID, bob.ID))
	require.NoError(t, s.AddGroupMember(group.ID, bob.ID))

	var count int
	err = s.db.QueryRow(s.rebind("SELECT COUNT(*) FROM group_members WHERE groupid = ? AND userid = ?"),
		group.ID, bob.ID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAddGroupMemberUnknownGroup(t *testing.T) {
	s := newTestStore(t)
	alice := createTestUser(t, s, "alice")

	err := s.AddGroupMember(9999, alice.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestListGroupsForUser(t *testing.T) {
	s := newTestStore(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")

	g1, err := s.CreateGroup("first", alice.ID)
	require.NoError(t, err)
	_, err = s.CreateGroup("second", bob.ID)
	require.NoError(t, err)
	g3, err := s.CreateGroup("third", bob.ID)
	require.NoError(t, err)
	require.NoError(t, s.AddGroupMember(g3.ID, alice.ID))

	groups, err := s.ListGroupsForUser(alice.ID)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, g1.ID, groups[0].ID)
	assert.Equal(t, g3.ID, groups[1].ID)
}

func TestGroupMessagesOrderedBySentAt(t *testing.T) {
	s := newTestStore(t)
	alice := createTestUser(t, s, "alice")
	group, err := s.CreateGroup("book club", alice.ID)
	require.NoError(t, err)

	first, err := s.InsertGroupMessage(alice.ID, group.ID, sealed("01"))
	require.NoError(t, err)
	assert.False(t, first.SentAt.IsZero())

	_, err = s.InsertGroupMessage(alice.ID, group.ID, sealed("02"))
	require.NoError(t, err)
	_, err = s.InsertGroupMessage(alice.ID, group.ID, sealed("03"))
	require.NoError(t, err)

	msgs, err := s.ListGroupMessages(group.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "01", msgs[0].Sealed.Content)
	assert.Equal(t, "02", msgs[1].Sealed.Content)
	assert.Equal(t, "03", msgs[2].Sealed.Content)
	assert.Equal(t, "alice", msgs[0].SenderName)
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].SentAt.Before(msgs[i-1].SentAt))
	}
}

func TestLastGroupMessage(t *testing.T) {
	s := newTestStore(t)
	alice := createTestUser(t, s, "alice")
	group, err := s.CreateGroup("book club", alice.ID)
	require.NoError(t, err)

	last, err := s.LastGroupMessage(group.ID)
	require.NoError(t, err)
	assert.Nil(t, last)

	_, err = s.InsertGroupMessage(alice.ID, group.ID, sealed("01"))
	require.NoError(t, err)
	_, err = s.InsertGroupMessage(alice.ID, group.ID, sealed("02"))
	require.NoError(t, err)

	last, err = s.LastGroupMessage(group.ID)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "02", last.Sealed.Content)
}

func TestInsertGroupMessageUnknownGroup(t *testing.T) {
	s := newTestStore(t)
	alice := createTestUser(t, s, "alice")

	_, err := s.InsertGroupMessage(alice.ID, 9999, sealed("01"))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}
