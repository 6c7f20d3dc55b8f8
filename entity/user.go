package entity

import (
	"strconv"
	"strings"
)

// User is the profile snapshot recorded on every observed interaction.
// The users document is keyed by the stringified Telegram id.
type User struct {
	Username  string `json:"username" bson:"username"`
	FirstName string `json:"first_name" bson:"first_name"`
	LastName  string `json:"last_name" bson:"last_name"`
	LastSeen  string `json:"last_seen" bson:"last_seen"`
}

// UsersDocument is the persisted shape of the users file.
type UsersDocument map[string]User

// DisplayName resolves a name in order: @username, "first last", first, last, raw id.
// The escape function is applied to each user-supplied part.
func (u User) DisplayName(id int64, escape func(string) string) string {
	if escape == nil {
		escape = func(s string) string { return s }
	}
	if u.Username != "" {
		return "@" + escape(u.Username)
	}
	parts := make([]string, 0, 2)
	if u.FirstName != "" {
		parts = append(parts, escape(u.FirstName))
	}
	if u.LastName != "" {
		parts = append(parts, escape(u.LastName))
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	return strconv.FormatInt(id, 10)
}

// UserKey converts a Telegram id to its document key.
func UserKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseUserKey converts a document key back to a Telegram id.
func ParseUserKey(key string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(key), 10, 64)
}
