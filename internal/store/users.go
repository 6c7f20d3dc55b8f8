package store

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"botadmin/entity"
	"botadmin/internal/database"
	"botadmin/lib/clock"
	"botadmin/lib/sl"
)

// Users caches the users document in memory; it is loaded once at construction
// and saved on every write. Records are never deleted.
type Users struct {
	log  *slog.Logger
	docs database.Documents
	name string
	opts options

	mu    sync.RWMutex
	users entity.UsersDocument
}

func NewUsers(docs database.Documents, name string, log *slog.Logger, opts ...Option) *Users {
	u := &Users{
		log:   log.With(sl.Module("store.users")),
		docs:  docs,
		name:  name,
		opts:  buildOptions(opts),
		users: make(entity.UsersDocument),
	}
	doc := make(entity.UsersDocument)
	if _, err := load(u.log, docs, name, &doc); err == nil && doc != nil {
		u.users = doc
	}
	u.log.With(slog.Int("count", len(u.users))).Debug("loaded users")
	return u
}

// Register creates or refreshes the profile snapshot of a user.
func (u *Users) Register(id int64, username, firstName, lastName string) entity.User {
	user := entity.User{
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		LastSeen:  u.opts.now().In(u.opts.location).Format(clock.SeenLayout),
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.users[entity.UserKey(id)] = user
	save(u.log, u.docs, u.name, u.users)
	return user
}

func (u *Users) Get(id int64) (entity.User, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	user, ok := u.users[entity.UserKey(id)]
	return user, ok
}

// FindByUsername resolves a username, with or without the leading @.
func (u *Users) FindByUsername(username string) (int64, bool) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return 0, false
	}
	u.mu.RLock()
	defer u.mu.RUnlock()
	for key, user := range u.users {
		if strings.EqualFold(user.Username, username) {
			id, err := entity.ParseUserKey(key)
			if err != nil {
				continue
			}
			return id, true
		}
	}
	return 0, false
}

// Ids returns every known user id in ascending order. Keys that are not numeric are skipped.
func (u *Users) Ids() []int64 {
	u.mu.RLock()
	defer u.mu.RUnlock()
	ids := make([]int64, 0, len(u.users))
	for key := range u.users {
		id, err := entity.ParseUserKey(key)
		if err != nil {
			u.log.With(slog.String("key", key)).Warn("skipping user with invalid id")
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// All returns a copy of the users document.
func (u *Users) All() entity.UsersDocument {
	u.mu.RLock()
	defer u.mu.RUnlock()
	all := make(entity.UsersDocument, len(u.users))
	for k, v := range u.users {
		all[k] = v
	}
	return all
}

func (u *Users) Count() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.users)
}
