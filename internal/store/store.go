package store

import "github.com/mliu/whisper/internal/models"

// Store persists users, direct messages, groups, and group messages.
// Message bodies cross this boundary only as sealed payloads; encryption
// and decryption happen in the chat service above.
type Store interface {
	// User operations
	CreateUser(user *models.User) error
	GetUserByUsername(username string) (*models.User, error)
	GetUserByID(id int) (*models.User, error)
	SearchUsers(query string) ([]models.User, error)

	// Direct messages
	InsertDirect(senderID, receiverID int, sealed *models.SealedMessage) error
	ListDirectForUser(userID int) ([]models.DirectMessage, error)
	ListBetween(userA, userB int) ([]models.DirectMessage, error)

	// Groups and membership
	CreateGroup(name string, ownerID int) (*models.Group, error)
	AddGroupMember(groupID, userID int) error
	IsGroupMember(groupID, userID int) (bool, error)
	ListGroupsForUser(userID int) ([]models.Group, error)

	// Group messages
	InsertGroupMessage(senderID, groupID int, sealed *models.SealedMessage) (*models.GroupMessage, error)
	ListGroupMessages(groupID int) ([]models.GroupMessage, error)
	LastGroupMessage(groupID int) (*models.GroupMessage, error)
}
