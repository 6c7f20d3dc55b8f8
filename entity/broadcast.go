package entity

import "sort"

type BroadcastType string

const (
	BroadcastText  BroadcastType = "text"
	BroadcastPhoto BroadcastType = "photo"
)

// MessageEntity is the serializable part of a Telegram formatting entity.
type MessageEntity struct {
	Type   string `json:"type" bson:"type"`
	Offset int64  `json:"offset" bson:"offset"`
	Length int64  `json:"length" bson:"length"`
	Url    string `json:"url,omitempty" bson:"url,omitempty"`
}

// Broadcast is a message fanned out to authorized users.
// MessageIds maps the stringified recipient id to the delivered message id,
// so later edits can target what was sent.
type Broadcast struct {
	Content    string           `json:"content" bson:"content"`
	Type       BroadcastType    `json:"type" bson:"type"`
	FileId     string           `json:"file_id" bson:"file_id"`
	Caption    string           `json:"caption" bson:"caption"`
	Entities   []MessageEntity  `json:"entities" bson:"entities"`
	MessageIds map[string]int64 `json:"message_ids" bson:"message_ids"`
	ParseMode  string           `json:"parse_mode" bson:"parse_mode"`
}

// IsPhoto reports whether the broadcast carries a photo that can be re-sent.
func (b *Broadcast) IsPhoto() bool {
	return b.Type == BroadcastPhoto && b.FileId != ""
}

// Delivered reports whether userId already holds a copy of the broadcast.
func (b *Broadcast) Delivered(userId int64) bool {
	_, ok := b.MessageIds[UserKey(userId)]
	return ok
}

// Recipients returns the recorded deliveries ordered by recipient key.
func (b *Broadcast) Recipients() []string {
	keys := make([]string, 0, len(b.MessageIds))
	for k := range b.MessageIds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy.
func (b *Broadcast) Clone() *Broadcast {
	c := *b
	c.Entities = append([]MessageEntity(nil), b.Entities...)
	c.MessageIds = make(map[string]int64, len(b.MessageIds))
	for k, v := range b.MessageIds {
		c.MessageIds[k] = v
	}
	return &c
}

// BroadcastsDocument is the persisted shape of the broadcasts file.
type BroadcastsDocument map[string]*Broadcast
