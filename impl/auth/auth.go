package auth

import (
	"crypto/subtle"
	"fmt"
	"sort"
)

// ApiUser is the principal behind an accepted API token.
const ApiUser = "api"

// Auth holds the statically loaded admin list and the API token.
// It is read-only after construction.
type Auth struct {
	admins   map[int64]struct{}
	apiToken string
}

func New(adminIds []int64, apiToken string) *Auth {
	a := &Auth{
		admins:   make(map[int64]struct{}, len(adminIds)),
		apiToken: apiToken,
	}
	for _, id := range adminIds {
		a.admins[id] = struct{}{}
	}
	return a
}

func (a *Auth) IsAdmin(id int64) bool {
	_, ok := a.admins[id]
	return ok
}

// AdminIds returns the admin list in ascending order.
func (a *Auth) AdminIds() []int64 {
	ids := make([]int64, 0, len(a.admins))
	for id := range a.admins {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// UserByToken returns the principal name for a valid API token.
func (a *Auth) UserByToken(token string) (string, error) {
	if a.apiToken == "" {
		return "", fmt.Errorf("api token not configured")
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.apiToken)) != 1 {
		return "", fmt.Errorf("invalid token")
	}
	return ApiUser, nil
}
