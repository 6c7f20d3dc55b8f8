package store

import (
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"botadmin/entity"
	"botadmin/internal/database"
	"botadmin/lib/sl"
)

// Broadcasts caches the broadcasts document in memory; it is loaded once at construction.
type Broadcasts struct {
	log  *slog.Logger
	docs database.Documents
	name string
	opts options

	mu         sync.Mutex
	broadcasts entity.BroadcastsDocument
}

// BroadcastItem pairs a broadcast with its id for ordered listings.
type BroadcastItem struct {
	Id        string            `json:"id"`
	Broadcast *entity.Broadcast `json:"broadcast"`
}

func NewBroadcasts(docs database.Documents, name string, log *slog.Logger, opts ...Option) *Broadcasts {
	b := &Broadcasts{
		log:        log.With(sl.Module("store.broadcasts")),
		docs:       docs,
		name:       name,
		opts:       buildOptions(opts),
		broadcasts: make(entity.BroadcastsDocument),
	}
	doc := make(entity.BroadcastsDocument)
	if _, err := load(b.log, docs, name, &doc); err == nil && doc != nil {
		for id, broadcast := range doc {
			if broadcast == nil {
				delete(doc, id)
				continue
			}
			if broadcast.MessageIds == nil {
				broadcast.MessageIds = make(map[string]int64)
			}
		}
		b.broadcasts = doc
	}
	b.log.With(slog.Int("count", len(b.broadcasts))).Debug("loaded broadcasts")
	return b
}

// BroadcastId formats t as seconds since the epoch with a microsecond fraction.
func BroadcastId(t time.Time) string {
	return strconv.FormatFloat(float64(t.UnixMicro())/1e6, 'f', -1, 64)
}

// Create stores a new broadcast with an empty delivery map and returns its id.
func (b *Broadcasts) Create(broadcast entity.Broadcast) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := b.opts.now()
	id := BroadcastId(t)
	for {
		if _, exists := b.broadcasts[id]; !exists {
			break
		}
		t = t.Add(time.Microsecond)
		id = BroadcastId(t)
	}
	if broadcast.Type == "" {
		broadcast.Type = entity.BroadcastText
	}
	broadcast.MessageIds = make(map[string]int64)
	b.broadcasts[id] = &broadcast
	save(b.log, b.docs, b.name, b.broadcasts)
	b.log.With(slog.String("broadcast", id), slog.String("type", string(broadcast.Type))).Info("broadcast created")
	return id
}

// Get returns a copy of the broadcast.
func (b *Broadcasts) Get(id string) (*entity.Broadcast, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	broadcast, ok := b.broadcasts[id]
	if !ok {
		return nil, false
	}
	return broadcast.Clone(), true
}

// List returns copies of all broadcasts in creation order.
func (b *Broadcasts) List() []BroadcastItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := make([]BroadcastItem, 0, len(b.broadcasts))
	for id, broadcast := range b.broadcasts {
		items = append(items, BroadcastItem{Id: id, Broadcast: broadcast.Clone()})
	}
	sort.Slice(items, func(i, j int) bool {
		return idLess(items[i].Id, items[j].Id)
	})
	return items
}

func idLess(a, b string) bool {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil || fa == fb {
		return a < b
	}
	return fa < fb
}

// RecordDelivery notes the message delivered to userId. It changes memory only;
// call Save once the fan-out is complete.
func (b *Broadcasts) RecordDelivery(id string, userId, messageId int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	broadcast, ok := b.broadcasts[id]
	if !ok {
		return false
	}
	broadcast.MessageIds[entity.UserKey(userId)] = messageId
	return true
}

// UpdateContent replaces content and entities, keeping the delivery map.
func (b *Broadcasts) UpdateContent(id, content string, entities []entity.MessageEntity) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	broadcast, ok := b.broadcasts[id]
	if !ok {
		return false
	}
	broadcast.Content = content
	broadcast.Entities = append([]entity.MessageEntity(nil), entities...)
	if broadcast.IsPhoto() {
		broadcast.Caption = content
	}
	save(b.log, b.docs, b.name, b.broadcasts)
	return true
}

// Delete removes the broadcast; deleting an unknown id is a no-op.
func (b *Broadcasts) Delete(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.broadcasts[id]; !ok {
		return false
	}
	delete(b.broadcasts, id)
	save(b.log, b.docs, b.name, b.broadcasts)
	b.log.With(slog.String("broadcast", id)).Info("broadcast deleted")
	return true
}

func (b *Broadcasts) Save() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return save(b.log, b.docs, b.name, b.broadcasts)
}

func (b *Broadcasts) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.broadcasts)
}
