package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CodeUser identifies who redeemed an access code.
type CodeUser struct {
	Id       int64  `json:"id" bson:"id"`
	Username string `json:"username" bson:"username"`
}

// UnmarshalJSON also accepts a bare numeric id, the shape older documents used.
func (c *CodeUser) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '{' {
		var id int64
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("used_by: %w", err)
		}
		*c = CodeUser{Id: id}
		return nil
	}
	type plain CodeUser
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = CodeUser(p)
	return nil
}

// AccessCode is a single-use, time-limited token.
// It moves from Used=false to Used=true exactly once and is never re-activated.
type AccessCode struct {
	Code       string    `json:"code" bson:"code" validate:"required,alphanum,uppercase"`
	Expiration string    `json:"expiration" bson:"expiration" validate:"required"`
	CreatedBy  int64     `json:"created_by" bson:"created_by"`
	Used       bool      `json:"used" bson:"used"`
	UsedBy     *CodeUser `json:"used_by,omitempty" bson:"used_by,omitempty"`
}

// IsActive reports whether the code is unused and expires after now.
// Both values share the fixed ISO layout, so string order is time order.
func (c AccessCode) IsActive(now string) bool {
	return !c.Used && c.Expiration > now
}

// Clone copies the code together with its redeemer.
func (c AccessCode) Clone() AccessCode {
	if c.UsedBy != nil {
		usedBy := *c.UsedBy
		c.UsedBy = &usedBy
	}
	return c
}

// AccessDocument is the persisted shape of the access codes file.
// Authorized and banned sets are exclusive by convention only.
type AccessDocument struct {
	AuthorizedUsers []int64      `json:"authorized_users" bson:"authorized_users"`
	BannedUsers     []int64      `json:"banned_users" bson:"banned_users"`
	Codes           []AccessCode `json:"codes" bson:"codes"`
}

// Normalize replaces missing collections with empty ones.
func (d *AccessDocument) Normalize() {
	if d.AuthorizedUsers == nil {
		d.AuthorizedUsers = []int64{}
	}
	if d.BannedUsers == nil {
		d.BannedUsers = []int64{}
	}
	if d.Codes == nil {
		d.Codes = []AccessCode{}
	}
}

// Clone returns a deep copy.
func (d AccessDocument) Clone() AccessDocument {
	c := AccessDocument{
		AuthorizedUsers: append([]int64{}, d.AuthorizedUsers...),
		BannedUsers:     append([]int64{}, d.BannedUsers...),
		Codes:           make([]AccessCode, len(d.Codes)),
	}
	for i, code := range d.Codes {
		c.Codes[i] = code.Clone()
	}
	return c
}

func Contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func Remove(ids []int64, id int64) ([]int64, bool) {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...), true
		}
	}
	return ids, false
}
