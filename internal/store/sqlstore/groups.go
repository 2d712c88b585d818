package sqlstore

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/mliu/whisper/internal/models"
)

// CreateGroup inserts the group row and the creator's membership in one
// transaction: a group never exists without at least its creator as member.
func (s *SQLStore) CreateGroup(name string, ownerID int) (*models.Group, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, mapErr(err)
	}
	defer tx.Rollback()

	group := &models.Group{Name: name, CreatedBy: ownerID}
	query := s.rebind("INSERT INTO chat_groups (groupname, created_by) VALUES (?, ?) RETURNING id, created_at")
	if err := tx.QueryRow(query, name, ownerID).Scan(&group.ID, &group.CreatedAt); err != nil {
		return nil, mapErr(err)
	}

	query = s.rebind("INSERT INTO group_members (groupid, userid) VALUES (?, ?)")
	if _, err := tx.Exec(query, group.ID, ownerID); err != nil {
		return nil, mapErr(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, mapErr(err)
	}
	return group, nil
}

// AddGroupMember is idempotent: adding an existing member is a no-op.
func (s *SQLStore) AddGroupMember(groupID, userID int) error {
	query := s.rebind("INSERT INTO group_members (groupid, userid) VALUES (?, ?) ON CONFLICT DO NOTHING")
	_, err := s.db.Exec(query, groupID, userID)
	return mapErr(err)
}

func (s *SQLStore) IsGroupMember(groupID, userID int) (bool, error) {
	var exists bool
	query := s.rebind("SELECT EXISTS(SELECT 1 FROM group_members WHERE groupid = ? AND userid = ?)")
	if err := s.db.QueryRow(query, groupID, userID).Scan(&exists); err != nil {
		return false, mapErr(err)
	}
	return exists, nil
}

func (s *SQLStore) ListGroupsForUser(userID int) ([]models.Group, error) {
	query := s.rebind(`
		SELECT g.id, g.groupname, g.created_by, g.created_at
		FROM chat_groups g
		JOIN group_members m ON g.id = m.groupid
		WHERE m.userid = ?
		ORDER BY g.id ASC
	`)
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt); err != nil {
			return nil, mapErr(errors.Wrap(err, "sqlstore.ListGroupsForUser.Scan"))
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// InsertGroupMessage writes one group message row and returns it with the
// server-assigned id and sent_at.
func (s *SQLStore) InsertGroupMessage(senderID, groupID int, sealed *models.SealedMessage) (*models.GroupMessage, error) {
	msg := &models.GroupMessage{
		SenderID: senderID,
		GroupID:  groupID,
		Sealed:   *sealed,
	}
	query := s.rebind("INSERT INTO group_messages (senderid, groupid, content, iv, tag) VALUES (?, ?, ?, ?, ?) RETURNING id, sent_at")
	if err := s.db.QueryRow(query, senderID, groupID, sealed.Content, sealed.IV, sealed.Tag).Scan(&msg.ID, &msg.SentAt); err != nil {
		return nil, mapErr(err)
	}
	return msg, nil
}

// ListGroupMessages returns the group's messages ordered by sent_at
// ascending, id breaking ties for messages in the same instant.
func (s *SQLStore) ListGroupMessages(groupID int) ([]models.GroupMessage, error) {
	query := s.rebind(`
		SELECT m.id, m.senderid, m.groupid, u.username, m.content, m.iv, m.tag, m.sent_at
		FROM group_messages m
		JOIN users u ON m.senderid = u.id
		WHERE m.groupid = ?
		ORDER BY m.sent_at ASC, m.id ASC
	`)
	rows, err := s.db.Query(query, groupID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var messages []models.GroupMessage
	for rows.Next() {
		m, err := scanGroupMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

// LastGroupMessage returns the group's most recent message, or nil if the
// group has none yet.
func (s *SQLStore) LastGroupMessage(groupID int) (*models.GroupMessage, error) {
	query := s.rebind(`
		SELECT m.id, m.senderid, m.groupid, u.username, m.content, m.iv, m.tag, m.sent_at
		FROM group_messages m
		JOIN users u ON m.senderid = u.id
		WHERE m.groupid = ?
		ORDER BY m.sent_at DESC, m.id DESC
		LIMIT 1
	`)
	rows, err := s.db.Query(query, groupID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanGroupMessage(rows)
}

func scanGroupMessage(rows *sql.Rows) (*models.GroupMessage, error) {
	var m models.GroupMessage
	err := rows.Scan(&m.ID, &m.SenderID, &m.GroupID, &m.SenderName,
		&m.Sealed.Content, &m.Sealed.IV, &m.Sealed.Tag, &m.SentAt)
	if err != nil {
		return nil, mapErr(errors.Wrap(err, "sqlstore.scanGroupMessage"))
	}
	return &m, nil
}
