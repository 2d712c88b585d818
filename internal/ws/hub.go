// Package ws pushes new-message notifications to connected clients. Sends
// themselves go through the HTTP API; the hub only tells recipients that
// something arrived.
package ws

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// MembershipChecker gates group fan-out. Satisfied by the chat service.
type MembershipChecker interface {
	IsGroupMember(groupID, userID int) (bool, error)
}

type notification struct {
	userID  int // direct target, 0 for group fan-out
	groupID int // group fan-out target, 0 for direct
	exclude int // sender to skip on group fan-out
	payload []byte
}

type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Outbound notifications queued by the HTTP handlers.
	notifications chan notification

	members MembershipChecker
}

func NewHub(members MembershipChecker) *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		notifications: make(chan notification, 64),
		members:       members,
	}
}

// Run owns the client registry; all map access goes through this loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case n := <-h.notifications:
			if n.groupID != 0 {
				// Membership checks hit the database; run them off the
				// loop so a slow store cannot stall every delivery.
				go h.fanOutGroup(n, h.connectedUserIDs(n.exclude))
			} else {
				h.dispatch(n)
			}
		}
	}
}

// connectedUserIDs snapshots the registry. Must run on the Run goroutine.
func (h *Hub) connectedUserIDs(exclude int) []int {
	seen := make(map[int]bool, len(h.clients))
	ids := make([]int, 0, len(h.clients))
	for client := range h.clients {
		if client.userID == exclude || seen[client.userID] {
			continue
		}
		seen[client.userID] = true
		ids = append(ids, client.userID)
	}
	return ids
}

// fanOutGroup filters the snapshot by membership and requeues each hit as a
// direct notification. Runs off the Run goroutine; it never touches clients.
func (h *Hub) fanOutGroup(n notification, userIDs []int) {
	for _, id := range userIDs {
		isMember, err := h.members.IsGroupMember(n.groupID, id)
		if err != nil {
			logrus.WithError(err).WithField("group", n.groupID).Error("membership check failed")
			continue
		}
		if isMember {
			h.notifications <- notification{userID: id, payload: n.payload}
		}
	}
}

func (h *Hub) dispatch(n notification) {
	for client := range h.clients {
		if client.userID != n.userID {
			continue
		}
		select {
		case client.send <- n.payload:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// SendNotification queues a payload for one user's connected clients.
func (h *Hub) SendNotification(userID int, message interface{}) {
	payload, err := json.Marshal(message)
	if err != nil {
		logrus.WithError(err).Error("failed to marshal notification")
		return
	}
	h.notifications <- notification{userID: userID, payload: payload}
}

// NotifyGroup queues a payload for every connected member of the group
// except the sender.
func (h *Hub) NotifyGroup(groupID, excludeUserID int, message interface{}) {
	payload, err := json.Marshal(message)
	if err != nil {
		logrus.WithError(err).Error("failed to marshal notification")
		return
	}
	h.notifications <- notification{groupID: groupID, exclude: excludeUserID, payload: payload}
}
