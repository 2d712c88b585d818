// Package chat composes the store, cipher, and membership checks into the
// messaging operations exposed over HTTP.
package chat

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mliu/whisper/internal/apperrors"
	"github.com/mliu/whisper/internal/crypto"
	"github.com/mliu/whisper/internal/models"
	"github.com/mliu/whisper/internal/store"
)

type Service struct {
	store  store.Store
	cipher *crypto.Cipher
}

func NewService(store store.Store, cipher *crypto.Cipher) *Service {
	return &Service{store: store, cipher: cipher}
}

// SendDirect encrypts and persists a direct message, echoing the plaintext
// back to the sender. Direct messages carry no server timestamp.
func (s *Service) SendDirect(me, otherID int, plaintext string) (*models.Message, error) {
	if strings.TrimSpace(plaintext) == "" {
		return nil, apperrors.Validation("message content cannot be empty")
	}

	sealed, err := s.cipher.Encrypt(plaintext)
	if err != nil {
		return nil, err
	}
	if err := s.store.InsertDirect(me, otherID, sealed); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"sender":   me,
		"receiver": otherID,
	}).Debug("direct message stored")

	return &models.Message{FromMe: true, Content: plaintext, SentAt: nil}, nil
}

// FetchConversation returns all messages between me and otherID, decrypted
// and tagged fromMe. Ids are ordinals within this response; the underlying
// rows have no id column.
func (s *Service) FetchConversation(me, otherID int) ([]models.Message, error) {
	rows, err := s.store.ListBetween(me, otherID)
	if err != nil {
		return nil, err
	}

	messages := []models.Message{}
	for i := range rows {
		plaintext, err := s.cipher.Decrypt(&rows[i].Sealed)
		if err != nil {
			return nil, err
		}
		messages = append(messages, models.Message{
			ID:      i + 1,
			FromMe:  rows[i].SenderID == me,
			Sender:  rows[i].SenderName,
			Content: plaintext,
			SentAt:  nil,
		})
	}
	return messages, nil
}

// SendGroupMessage validates, authorizes against membership, then encrypts
// and persists. Both rejections happen before any row is written.
func (s *Service) SendGroupMessage(me, groupID int, plaintext string) (*models.Message, error) {
	if strings.TrimSpace(plaintext) == "" {
		return nil, apperrors.Validation("message content cannot be empty")
	}

	if err := s.requireMembership(groupID, me); err != nil {
		return nil, err
	}

	sealed, err := s.cipher.Encrypt(plaintext)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.InsertGroupMessage(me, groupID, sealed)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"sender": me,
		"group":  groupID,
	}).Debug("group message stored")

	sentAt := stored.SentAt
	return &models.Message{
		ID:      stored.ID,
		FromMe:  true,
		Content: plaintext,
		SentAt:  &sentAt,
	}, nil
}

// FetchGroupMessages returns the group's messages in sent_at order with
// sender display names. Non-members are rejected before any read.
func (s *Service) FetchGroupMessages(me, groupID int) ([]models.Message, error) {
	if err := s.requireMembership(groupID, me); err != nil {
		return nil, err
	}

	rows, err := s.store.ListGroupMessages(groupID)
	if err != nil {
		return nil, err
	}

	messages := []models.Message{}
	for i := range rows {
		plaintext, err := s.cipher.Decrypt(&rows[i].Sealed)
		if err != nil {
			return nil, err
		}
		sentAt := rows[i].SentAt
		messages = append(messages, models.Message{
			ID:      rows[i].ID,
			FromMe:  rows[i].SenderID == me,
			Sender:  rows[i].SenderName,
			Content: plaintext,
			SentAt:  &sentAt,
		})
	}
	return messages, nil
}

// StartDirectChat resolves a username and returns a zero-message
// placeholder entry. No row is written until the first send; a conversation
// exists logically before any message.
func (s *Service) StartDirectChat(me int, targetUsername string) (*models.Conversation, error) {
	if strings.TrimSpace(targetUsername) == "" {
		return nil, apperrors.Validation("username is required")
	}

	target, err := s.store.GetUserByUsername(targetUsername)
	if err != nil {
		return nil, err
	}
	if target.ID == me {
		return nil, apperrors.Validation("cannot start a chat with yourself")
	}

	return &models.Conversation{
		IsGroup: false,
		UserID:  target.ID,
		Name:    target.Username,
	}, nil
}

// CreateGroup creates a group with the caller enrolled as its first member.
func (s *Service) CreateGroup(me int, name string) (*models.Group, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.Validation("group name cannot be empty")
	}

	group, err := s.store.CreateGroup(name, me)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"group": group.ID,
		"owner": me,
	}).Info("group created")

	return group, nil
}

// AddGroupMember lets an existing member enroll another user. Adding a user
// who is already a member is a no-op.
func (s *Service) AddGroupMember(me, groupID, userID int) error {
	if err := s.requireMembership(groupID, me); err != nil {
		return err
	}
	if _, err := s.store.GetUserByID(userID); err != nil {
		return err
	}
	return s.store.AddGroupMember(groupID, userID)
}

// IsGroupMember exposes the membership predicate for collaborators such as
// the notification hub.
func (s *Service) IsGroupMember(groupID, userID int) (bool, error) {
	return s.store.IsGroupMember(groupID, userID)
}

func (s *Service) requireMembership(groupID, userID int) error {
	isMember, err := s.store.IsGroupMember(groupID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return apperrors.Unauthorized("you are not a member of this group")
	}
	return nil
}
