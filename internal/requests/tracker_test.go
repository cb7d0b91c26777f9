package requests

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTracker_Create_And_Get(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()

	request := tracker.Create("bob", "room_1", "conn-2")

	req.NotEmpty(request.ID)
	found, ok := tracker.Get(request.ID)
	req.True(ok)
	req.Equal("bob", found.Username)
	req.Equal("room_1", found.RoomID)
	req.Equal("conn-2", found.ConnID)
}

func TestTracker_Duplicate_Requests_Are_Allowed(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()

	first := tracker.Create("bob", "room_1", "conn-2")
	second := tracker.Create("bob", "room_1", "conn-2")

	req.NotEqual(first.ID, second.ID)
	_, ok := tracker.Get(first.ID)
	req.True(ok)
	_, ok = tracker.Get(second.ID)
	req.True(ok)
}

func TestTracker_Remove_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()
	request := tracker.Create("bob", "room_1", "conn-2")

	tracker.Remove(request.ID)
	tracker.Remove(request.ID)

	_, ok := tracker.Get(request.ID)
	req.False(ok)
}

func TestTracker_RemoveByRoom(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()
	doomed := tracker.Create("bob", "room_1", "conn-2")
	survivor := tracker.Create("bob", "room_2", "conn-2")

	tracker.RemoveByRoom("room_1")

	_, ok := tracker.Get(doomed.ID)
	req.False(ok)
	_, ok = tracker.Get(survivor.ID)
	req.True(ok)
}
