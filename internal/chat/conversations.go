package chat

import (
	"github.com/mliu/whisper/internal/models"
)

// ListConversations derives the chat list: one entry per direct
// counterparty plus one entry per group the user belongs to, direct entries
// first.
func (s *Service) ListConversations(me int) ([]models.Conversation, error) {
	direct, err := s.directConversations(me)
	if err != nil {
		return nil, err
	}
	groups, err := s.groupConversations(me)
	if err != nil {
		return nil, err
	}
	return append(direct, groups...), nil
}

// directConversations deduplicates the user's direct messages to one entry
// per counterparty, keeping the first occurrence in retrieval order. The
// rows have no ordering column, so "first seen" is the defined policy here;
// it is not a latest-message guarantee.
func (s *Service) directConversations(me int) ([]models.Conversation, error) {
	rows, err := s.store.ListDirectForUser(me)
	if err != nil {
		return nil, err
	}

	conversations := []models.Conversation{}
	seen := make(map[int]bool)
	for i := range rows {
		row := &rows[i]

		otherID, otherName := row.SenderID, row.SenderName
		if row.SenderID == me {
			otherID, otherName = row.ReceiverID, row.ReceiverName
		}
		if seen[otherID] {
			continue
		}
		seen[otherID] = true

		plaintext, err := s.cipher.Decrypt(&row.Sealed)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, models.Conversation{
			IsGroup:     false,
			UserID:      otherID,
			Name:        otherName,
			LastMessage: plaintext,
			SentAt:      nil,
		})
	}
	return conversations, nil
}

// groupConversations joins each group the user belongs to with its newest
// message. Group messages carry sent_at, so here "last" really is latest.
func (s *Service) groupConversations(me int) ([]models.Conversation, error) {
	groups, err := s.store.ListGroupsForUser(me)
	if err != nil {
		return nil, err
	}

	conversations := []models.Conversation{}
	for _, g := range groups {
		entry := models.Conversation{
			IsGroup: true,
			GroupID: g.ID,
			Name:    g.Name,
		}

		last, err := s.store.LastGroupMessage(g.ID)
		if err != nil {
			return nil, err
		}
		if last != nil {
			plaintext, err := s.cipher.Decrypt(&last.Sealed)
			if err != nil {
				return nil, err
			}
			entry.LastMessage = plaintext
			sentAt := last.SentAt
			entry.SentAt = &sentAt
		}
		conversations = append(conversations, entry)
	}
	return conversations, nil
}
