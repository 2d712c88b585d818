package sqlstore

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/mliu/whisper/internal/models"
)

// InsertDirect writes one direct message row. The sealed triple goes in as
// a single insert, so the row is either fully present or absent.
func (s *SQLStore) InsertDirect(senderID, receiverID int, sealed *models.SealedMessage) error {
	query := s.rebind("INSERT INTO user_messages (senderid, receiverid, content, iv, tag) VALUES (?, ?, ?, ?, ?)")
	_, err := s.db.Exec(query, senderID, receiverID, sealed.Content, sealed.IV, sealed.Tag)
	return mapErr(err)
}

// ListDirectForUser returns every direct message the user sent or received,
// in retrieval order. There is no ordering column to sort by.
func (s *SQLStore) ListDirectForUser(userID int) ([]models.DirectMessage, error) {
	query := s.rebind(`
		SELECT m.senderid, m.receiverid, su.username, ru.username, m.content, m.iv, m.tag
		FROM user_messages m
		JOIN users su ON m.senderid = su.id
		JOIN users ru ON m.receiverid = ru.id
		WHERE m.senderid = ? OR m.receiverid = ?
	`)
	rows, err := s.db.Query(query, userID, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	return scanDirectMessages(rows)
}

// ListBetween returns all direct messages between the pair, both
// directions, in retrieval order.
func (s *SQLStore) ListBetween(userA, userB int) ([]models.DirectMessage, error) {
	query := s.rebind(`
		SELECT m.senderid, m.receiverid, su.username, ru.username, m.content, m.iv, m.tag
		FROM user_messages m
		JOIN users su ON m.senderid = su.id
		JOIN users ru ON m.receiverid = ru.id
		WHERE (m.senderid = ? AND m.receiverid = ?) OR (m.senderid = ? AND m.receiverid = ?)
	`)
	rows, err := s.db.Query(query, userA, userB, userB, userA)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	return scanDirectMessages(rows)
}

func scanDirectMessages(rows *sql.Rows) ([]models.DirectMessage, error) {
	var messages []models.DirectMessage
	for rows.Next() {
		var m models.DirectMessage
		err := rows.Scan(&m.SenderID, &m.ReceiverID, &m.SenderName, &m.ReceiverName,
			&m.Sealed.Content, &m.Sealed.IV, &m.Sealed.Tag)
		if err != nil {
			return nil, mapErr(errors.Wrap(err, "sqlstore.scanDirectMessages"))
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
