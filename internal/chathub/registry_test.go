package chathub

import (
	"fmt"
	"sync"
	"testing"

	"medchat/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func receiveEvent(body string) models.LiveEvent {
	return models.LiveEvent{
		Type:           models.EventReceive,
		ConversationID: "room-1",
		Message:        &models.Message{ConversationID: "room-1", Seq: 1, Body: body},
	}
}

func TestRegistry_JoinIsIdempotent(t *testing.T) {
	r := NewRegistry()
	a := newFakeClient("a", models.RolePatient)

	r.Join("room-1", a)
	r.Join("room-1", a)

	assert.Equal(t, []string{"a"}, r.Members("room-1"))
	assert.Equal(t, 1, r.RoomCount())
}

func TestRegistry_LeaveDropsEmptyRoom(t *testing.T) {
	r := NewRegistry()
	a := newFakeClient("a", models.RolePatient)
	b := newFakeClient("b", models.RoleClinician)

	r.Join("room-1", a)
	r.Join("room-1", b)
	r.Leave("room-1", a)
	assert.Equal(t, 1, r.RoomCount())

	r.Leave("room-1", b)
	assert.Equal(t, 0, r.RoomCount())
	assert.Empty(t, r.Members("room-1"))
}

func TestRegistry_LeaveNonMemberIsNoop(t *testing.T) {
	r := NewRegistry()
	a := newFakeClient("a", models.RolePatient)
	b := newFakeClient("b", models.RoleClinician)

	r.Leave("missing", a)
	r.Join("room-1", a)
	r.Leave("room-1", b)

	assert.Equal(t, []string{"a"}, r.Members("room-1"))
}

func TestRegistry_BroadcastExceptSkipsSender(t *testing.T) {
	r := NewRegistry()
	a := newFakeClient("a", models.RolePatient)
	b := newFakeClient("b", models.RoleClinician)
	c := newFakeClient("c", models.RoleClinician)
	other := newFakeClient("other", models.RolePatient)

	r.Join("room-1", a)
	r.Join("room-1", b)
	r.Join("room-1", c)
	r.Join("room-2", other)

	delivered := r.BroadcastExcept("room-1", a, receiveEvent("hi"))

	assert.Equal(t, 2, delivered)
	assert.Empty(t, a.received())
	assert.Len(t, b.received(), 1)
	assert.Len(t, c.received(), 1)
	assert.Empty(t, other.received())
	assert.Equal(t, "hi", b.received()[0].Message.Body)
}

func TestRegistry_BroadcastNeverReachesLeftMember(t *testing.T) {
	r := NewRegistry()
	x := newFakeClient("x", models.RolePatient)
	y := newFakeClient("y", models.RoleClinician)

	r.Join("room-1", x)
	r.Join("room-1", y)
	r.Leave("room-1", x)

	r.BroadcastExcept("room-1", y, receiveEvent("after leave"))

	assert.Empty(t, x.received())
}

func TestRegistry_BroadcastSkipsUnavailableSubscribers(t *testing.T) {
	r := NewRegistry()
	sender := newFakeClient("sender", models.RolePatient)
	closed := newFakeClient("closed", models.RoleClinician)
	full := newFakeClient("full", models.RoleClinician)
	ok := newFakeClient("ok", models.RoleClinician)
	closed.Close()
	full.full = true

	for _, c := range []*fakeClient{sender, closed, full, ok} {
		r.Join("room-1", c)
	}

	delivered := r.BroadcastExcept("room-1", sender, receiveEvent("hi"))

	assert.Equal(t, 1, delivered)
	assert.Len(t, ok.received(), 1)
}

func TestRegistry_BroadcastToUnknownRoom(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.BroadcastExcept("nobody", nil, receiveEvent("hi")))
	assert.Equal(t, 0, r.RoomCount())
}

func TestRegistry_ConcurrentJoinLeaveBroadcast(t *testing.T) {
	r := NewRegistry()
	sender := newFakeClient("sender", models.RolePatient)
	r.Join("room-1", sender)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		c := newFakeClient(fmt.Sprintf("c-%d", i), models.RoleClinician)
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Join("room-1", c)
			r.Leave("room-1", c)
		}()
		go func() {
			defer wg.Done()
			r.BroadcastExcept("room-1", sender, receiveEvent("ping"))
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"sender"}, r.Members("room-1"))
	assert.Empty(t, sender.received())
}
