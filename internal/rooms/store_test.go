package rooms

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func TestStore_Create_Room(t *testing.T) {
	req := require.New(t)
	store := NewStore(0)

	room, err := store.Create("conn-1", "alice")

	req.NoError(err)
	req.Equal("room_1", room.ID)
	req.Regexp(codePattern, room.Code)
	req.Equal("conn-1", room.OwnerConn)
	req.Equal("alice", room.OwnerName)
	// The owner is a member from creation
	req.Equal([]string{"alice"}, store.Members(room.ID))
}

func TestStore_Create_Generates_Unique_Ids_And_Codes(t *testing.T) {
	req := require.New(t)
	store := NewStore(0)
	seenCodes := map[string]bool{}
	seenIDs := map[string]bool{}

	for i := 0; i < 50; i++ {
		room, err := store.Create("conn-1", "alice")
		req.NoError(err)
		req.Regexp(codePattern, room.Code)
		req.False(seenCodes[room.Code])
		req.False(seenIDs[room.ID])
		seenCodes[room.Code] = true
		seenIDs[room.ID] = true
	}
}

func TestStore_FindByCode_Normalizes_Case(t *testing.T) {
	req := require.New(t)
	store := NewStore(0)
	room, err := store.Create("conn-1", "alice")
	req.NoError(err)

	found, ok := store.FindByCode("  " + room.Code + " ")
	req.True(ok)
	req.Equal(room.ID, found.ID)

	found, ok = store.FindByCode(strings.ToLower(room.Code))
	req.True(ok)
	req.Equal(room.ID, found.ID)

	if room.Code != "ZZZZZ0" {
		_, ok = store.FindByCode("ZZZZZ0")
		req.False(ok)
	}
}

func TestStore_Membership_Is_Idempotent_And_Ordered(t *testing.T) {
	req := require.New(t)
	store := NewStore(0)
	room, err := store.Create("conn-1", "alice")
	req.NoError(err)

	req.NoError(store.AddMember(room.ID, "bob"))
	req.NoError(store.AddMember(room.ID, "bob"))
	req.NoError(store.AddMember(room.ID, "carol"))
	req.Equal([]string{"alice", "bob", "carol"}, store.Members(room.ID))
	req.True(store.IsMember(room.ID, "bob"))

	req.NoError(store.RemoveMember(room.ID, "bob"))
	req.NoError(store.RemoveMember(room.ID, "bob"))
	req.NoError(store.RemoveMember(room.ID, "nobody"))
	req.Equal([]string{"alice", "carol"}, store.Members(room.ID))
	req.False(store.IsMember(room.ID, "bob"))
}

func TestStore_Membership_On_Unknown_Room(t *testing.T) {
	req := require.New(t)
	store := NewStore(0)

	req.ErrorIs(store.AddMember("room_404", "bob"), ErrRoomNotFound)
	req.ErrorIs(store.RemoveMember("room_404", "bob"), ErrRoomNotFound)
	req.False(store.IsMember("room_404", "bob"))
	req.Nil(store.Members("room_404"))
}

func TestStore_AppendMessage_Preserves_Order(t *testing.T) {
	req := require.New(t)
	store := NewStore(0)
	room, err := store.Create("conn-1", "alice")
	req.NoError(err)

	req.NoError(store.AppendMessage(room.ID, NewMessage("alice", "one")))
	req.NoError(store.AppendMessage(room.ID, NewMessage("alice", "two")))
	req.NoError(store.AppendMessage(room.ID, NewSystemMessage("bob joined the room")))

	messages := store.Messages(room.ID)
	req.Len(messages, 3)
	req.Equal("one", messages[0].Text)
	req.Equal("two", messages[1].Text)
	req.Equal("bob joined the room", messages[2].Text)
	req.Empty(messages[2].Username)
	req.NotZero(messages[0].Timestamp)
}

func TestStore_AppendMessage_Trims_To_Retention_Cap(t *testing.T) {
	req := require.New(t)
	store := NewStore(3)
	room, err := store.Create("conn-1", "alice")
	req.NoError(err)

	for _, text := range []string{"one", "two", "three", "four", "five"} {
		req.NoError(store.AppendMessage(room.ID, NewMessage("alice", text)))
	}

	messages := store.Messages(room.ID)
	req.Len(messages, 3)
	req.Equal("three", messages[0].Text)
	req.Equal("five", messages[2].Text)
}

func TestStore_Delete_Removes_Both_Lookups(t *testing.T) {
	req := require.New(t)
	store := NewStore(0)
	room, err := store.Create("conn-1", "alice")
	req.NoError(err)

	store.Delete(room.ID)

	_, ok := store.FindByID(room.ID)
	req.False(ok)
	_, ok = store.FindByCode(room.Code)
	req.False(ok)
	req.Nil(store.Messages(room.ID))

	// idempotent
	store.Delete(room.ID)
}

func TestStore_RoomsWithMember(t *testing.T) {
	req := require.New(t)
	store := NewStore(0)
	first, err := store.Create("conn-1", "alice")
	req.NoError(err)
	second, err := store.Create("conn-1", "alice")
	req.NoError(err)
	third, err := store.Create("conn-2", "bob")
	req.NoError(err)
	req.NoError(store.AddMember(third.ID, "alice"))

	roomIDs := map[string]bool{}
	for _, room := range store.RoomsWithMember("alice") {
		roomIDs[room.ID] = true
	}
	req.Len(roomIDs, 3)
	req.True(roomIDs[first.ID])
	req.True(roomIDs[second.ID])
	req.True(roomIDs[third.ID])

	req.Len(store.RoomsWithMember("bob"), 1)
	req.Empty(store.RoomsWithMember("nobody"))
}
