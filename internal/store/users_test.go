package store

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usersName = "users.json"

func TestRegisterUser(t *testing.T) {
	docs := newMemDocuments()
	clk := newFakeClock()
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	users := NewUsers(docs, usersName, discardLogger(), WithClock(clk.Now), WithLocation(paris))

	user := users.Register(42, "alice", "Alice", "")
	assert.Equal(t, "2024-05-10 14:00:00", user.LastSeen)
	assert.Equal(t, 1, docs.saved(usersName))

	clk.Advance(time.Hour)
	users.Register(42, "alice2", "Alice", "Smith")
	got, ok := users.Get(42)
	require.True(t, ok)
	assert.Equal(t, "alice2", got.Username)
	assert.Equal(t, "2024-05-10 15:00:00", got.LastSeen)
	assert.Equal(t, 1, users.Count())

	reloaded := NewUsers(docs, usersName, discardLogger())
	got, ok = reloaded.Get(42)
	require.True(t, ok)
	assert.Equal(t, "Smith", got.LastName)
}

func TestFindByUsername(t *testing.T) {
	users := NewUsers(newMemDocuments(), usersName, discardLogger())
	users.Register(5, "Bob", "", "")
	users.Register(6, "", "Carol", "")

	id, ok := users.FindByUsername("@bob")
	require.True(t, ok)
	assert.Equal(t, int64(5), id)

	_, ok = users.FindByUsername("carol")
	assert.False(t, ok)
	_, ok = users.FindByUsername("@")
	assert.False(t, ok)
}

func TestUserIdsSkipInvalidKeys(t *testing.T) {
	docs := newMemDocuments()
	docs.put(usersName, `{
		"30": {"username": "c", "first_name": "", "last_name": null, "last_seen": "2024-01-01 10:00:00"},
		"4": {"username": "d"},
		"oops": {"username": "x"}
	}`)
	users := NewUsers(docs, usersName, discardLogger())

	assert.Equal(t, []int64{4, 30}, users.Ids())
	assert.Len(t, users.All(), 3)
}

func TestUsersUnreadableDocument(t *testing.T) {
	docs := newMemDocuments()
	docs.loadErr = errBroken
	users := NewUsers(docs, usersName, discardLogger())
	assert.Equal(t, 0, users.Count())
	assert.Empty(t, users.Ids())
}

func TestUsersNullDocument(t *testing.T) {
	docs := newMemDocuments()
	docs.put(usersName, `null`)

	users := NewUsers(docs, usersName, discardLogger())
	assert.Equal(t, 0, users.Count())
	require.NotPanics(t, func() { users.Register(42, "alice", "", "") })
	assert.Equal(t, []int64{42}, users.Ids())
}
