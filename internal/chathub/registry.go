package chathub

import (
	"sync"

	"medchat/backend/internal/models"

	log "github.com/sirupsen/logrus"
)

// Registry maps conversation ids to the connections subscribed to them.
// Rooms exist only while they have members. The registry does no
// authorization; joins are a delivery hint, not an access boundary.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Client // conversationID -> connID -> client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]map[string]Client)}
}

// Join subscribes client to the room, creating it if needed. Joining twice is a no-op.
func (r *Registry) Join(conversationID string, client Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[conversationID]
	if !ok {
		members = make(map[string]Client)
		r.rooms[conversationID] = members
		liveRoomsGauge.Inc()
	}
	members[client.GetConnID()] = client
}

// Leave unsubscribes client and drops the room once it is empty. Leaving a
// room one is not in is a no-op.
func (r *Registry) Leave(conversationID string, client Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[conversationID]
	if !ok {
		return
	}
	delete(members, client.GetConnID())
	if len(members) == 0 {
		delete(r.rooms, conversationID)
		liveRoomsGauge.Dec()
	}
}

// BroadcastExcept hands event to every member of the room other than sender
// and returns how many accepted it. Delivery is at most once: closed or
// saturated members are skipped and never retried.
func (r *Registry) BroadcastExcept(conversationID string, sender Client, event models.LiveEvent) int {
	var senderID string
	if sender != nil {
		senderID = sender.GetConnID()
	}

	recipients := r.snapshot(conversationID, senderID)

	delivered := 0
	for _, client := range recipients {
		if client.Deliver(event) {
			delivered++
			continue
		}
		broadcastDroppedCounter.Inc()
		log.WithFields(log.Fields{
			"room": conversationID,
			"conn": client.GetConnID(),
		}).Debug("skipped live delivery to unavailable subscriber")
	}
	broadcastDeliveredCounter.Add(float64(delivered))
	return delivered
}

func (r *Registry) snapshot(conversationID, exceptConnID string) []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[conversationID]
	out := make([]Client, 0, len(members))
	for connID, client := range members {
		if connID == exceptConnID {
			continue
		}
		out = append(out, client)
	}
	return out
}

// Members returns the connection ids subscribed to the room.
func (r *Registry) Members(conversationID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.rooms[conversationID]))
	for connID := range r.rooms[conversationID] {
		ids = append(ids, connID)
	}
	return ids
}

// RoomCount returns the number of non-empty rooms.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
