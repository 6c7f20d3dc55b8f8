package store

import (
	"testing"
	"time"

	"botadmin/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const broadcastsName = "broadcasts.json"

func TestBroadcastId(t *testing.T) {
	ts := time.Unix(1715342400, 123456000)
	assert.Equal(t, "1715342400.123456", BroadcastId(ts))
	assert.Equal(t, "1715342400", BroadcastId(time.Unix(1715342400, 0)))
}

func TestBroadcastLifecycle(t *testing.T) {
	docs := newMemDocuments()
	clk := newFakeClock()
	broadcasts := NewBroadcasts(docs, broadcastsName, discardLogger(), WithClock(clk.Now))

	id := broadcasts.Create(entity.Broadcast{
		Content:  "hello *all*",
		Entities: []entity.MessageEntity{{Type: "bold", Offset: 6, Length: 5}},
	})
	require.NotEmpty(t, id)
	assert.Equal(t, 1, docs.saved(broadcastsName))

	b, ok := broadcasts.Get(id)
	require.True(t, ok)
	assert.Equal(t, entity.BroadcastText, b.Type)
	assert.NotNil(t, b.MessageIds)
	assert.Empty(t, b.MessageIds)

	assert.True(t, broadcasts.RecordDelivery(id, 10, 100))
	assert.True(t, broadcasts.RecordDelivery(id, 11, 101))
	assert.False(t, broadcasts.RecordDelivery("missing", 10, 1))
	assert.Equal(t, 1, docs.saved(broadcastsName))
	require.True(t, broadcasts.Save())

	assert.True(t, broadcasts.UpdateContent(id, "changed", nil))
	b, _ = broadcasts.Get(id)
	assert.Equal(t, "changed", b.Content)
	assert.Equal(t, map[string]int64{"10": 100, "11": 101}, b.MessageIds)

	assert.True(t, broadcasts.Delete(id))
	assert.False(t, broadcasts.Delete(id))
	_, ok = broadcasts.Get(id)
	assert.False(t, ok)
	assert.Equal(t, 0, broadcasts.Count())
}

func TestBroadcastGetReturnsCopy(t *testing.T) {
	broadcasts := NewBroadcasts(newMemDocuments(), broadcastsName, discardLogger())
	id := broadcasts.Create(entity.Broadcast{Content: "x"})

	b, _ := broadcasts.Get(id)
	b.MessageIds["5"] = 5
	b.Content = "mutated"

	fresh, _ := broadcasts.Get(id)
	assert.Empty(t, fresh.MessageIds)
	assert.Equal(t, "x", fresh.Content)
}

func TestBroadcastIdsUniqueAndOrdered(t *testing.T) {
	clk := newFakeClock()
	broadcasts := NewBroadcasts(newMemDocuments(), broadcastsName, discardLogger(), WithClock(clk.Now))

	first := broadcasts.Create(entity.Broadcast{Content: "1"})
	second := broadcasts.Create(entity.Broadcast{Content: "2"})
	clk.Advance(time.Second)
	third := broadcasts.Create(entity.Broadcast{Content: "3"})
	assert.NotEqual(t, first, second)

	list := broadcasts.List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{first, second, third}, []string{list[0].Id, list[1].Id, list[2].Id})
}

func TestBroadcastsLoadNormalises(t *testing.T) {
	docs := newMemDocuments()
	docs.put(broadcastsName, `{
		"1715342400.5": {"content": "old", "type": "text", "file_id": null, "caption": null, "entities": null, "message_ids": {"3": 30}, "parse_mode": null},
		"1715342401.5": {"content": "photo", "type": "photo", "file_id": "F1", "caption": "photo"},
		"1715342402.5": null
	}`)

	broadcasts := NewBroadcasts(docs, broadcastsName, discardLogger())
	assert.Equal(t, 2, broadcasts.Count())

	old, ok := broadcasts.Get("1715342400.5")
	require.True(t, ok)
	assert.True(t, old.Delivered(3))
	assert.False(t, old.IsPhoto())

	photo, ok := broadcasts.Get("1715342401.5")
	require.True(t, ok)
	assert.True(t, photo.IsPhoto())
	assert.NotNil(t, photo.MessageIds)

	require.True(t, broadcasts.UpdateContent("1715342401.5", "new caption", nil))
	photo, _ = broadcasts.Get("1715342401.5")
	assert.Equal(t, "new caption", photo.Caption)
}

func TestBroadcastsUnreadableDocument(t *testing.T) {
	docs := newMemDocuments()
	docs.put(broadcastsName, `[1, 2]`)

	broadcasts := NewBroadcasts(docs, broadcastsName, discardLogger())
	assert.Equal(t, 0, broadcasts.Count())
	assert.NotEmpty(t, broadcasts.Create(entity.Broadcast{Content: "x"}))
}

func TestBroadcastsNullDocument(t *testing.T) {
	docs := newMemDocuments()
	docs.put(broadcastsName, `null`)

	broadcasts := NewBroadcasts(docs, broadcastsName, discardLogger())
	assert.Equal(t, 0, broadcasts.Count())
	var id string
	require.NotPanics(t, func() { id = broadcasts.Create(entity.Broadcast{Content: "x"}) })
	_, ok := broadcasts.Get(id)
	assert.True(t, ok)
}
