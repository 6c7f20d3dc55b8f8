package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// AdminIds is the admin list; the document may hold numbers or numeric strings.
type AdminIds []int64

func (a *AdminIds) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("admin_ids: %w", err)
	}
	ids := make([]int64, 0, len(raw))
	for _, item := range raw {
		item = bytes.TrimSpace(item)
		value := strings.Trim(string(item), `"`)
		id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return fmt.Errorf("admin_ids: invalid id %s", item)
		}
		ids = append(ids, id)
	}
	*a = ids
	return nil
}

type adminsDocument struct {
	AdminIds AdminIds `json:"admin_ids" yaml:"admin_ids"`
}

// LoadAdminIds reads the admin_ids field of the admins document.
// Callers treat an error as an empty admin list.
func LoadAdminIds(path string) ([]int64, error) {
	var doc adminsDocument
	if err := cleanenv.ReadConfig(path, &doc); err != nil {
		return nil, fmt.Errorf("admins: %w", err)
	}
	return doc.AdminIds, nil
}
