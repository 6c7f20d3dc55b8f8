package store

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	"botadmin/entity"
	"botadmin/internal/database"
	"botadmin/lib/clock"
	"botadmin/lib/sl"
	"botadmin/lib/validate"
)

// CodeAlphabet is the set access codes are drawn from.
const CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Access holds the authorized and banned sets and the access code records.
// No cached state is trusted: every operation reloads the document first.
type Access struct {
	log  *slog.Logger
	docs database.Documents
	name string
	opts options

	mu  sync.Mutex
	doc entity.AccessDocument
}

func NewAccess(docs database.Documents, name string, log *slog.Logger, opts ...Option) *Access {
	a := &Access{
		log:  log.With(sl.Module("store.access")),
		docs: docs,
		name: name,
		opts: buildOptions(opts),
	}
	a.doc.Normalize()
	a.PurgeExpired()
	return a
}

// reload refreshes the document from storage. A missing document resets to empty;
// an unreadable one keeps the last known state and reports false.
// Callers hold a.mu.
func (a *Access) reload() (ok bool, missing bool) {
	var doc entity.AccessDocument
	missing, err := load(a.log, a.docs, a.name, &doc)
	if err != nil {
		return false, false
	}
	doc.Normalize()
	doc.Codes = a.validCodes(doc.Codes)
	a.doc = doc
	return true, missing
}

func (a *Access) validCodes(codes []entity.AccessCode) []entity.AccessCode {
	valid := codes[:0]
	for _, code := range codes {
		if err := validate.Struct(code); err != nil {
			a.log.With(slog.String("code", code.Code)).Warn("dropping invalid access code", sl.Err(err))
			continue
		}
		valid = append(valid, code)
	}
	return valid
}

func (a *Access) save() bool {
	return save(a.log, a.docs, a.name, a.doc)
}

func (a *Access) now() string {
	return clock.ISO(a.opts.now())
}

// IsAuthorized reloads the document and tests membership. An unreadable document
// counts as an empty roster.
func (a *Access) IsAuthorized(id int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ok, _ := a.reload(); !ok {
		return false
	}
	return entity.Contains(a.doc.AuthorizedUsers, id)
}

// IsBanned reloads the document and tests membership.
func (a *Access) IsBanned(id int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ok, _ := a.reload(); !ok {
		return false
	}
	return entity.Contains(a.doc.BannedUsers, id)
}

// Reload refreshes the document and returns the authorized ids.
func (a *Access) Reload() []int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reload()
	return append([]int64{}, a.doc.AuthorizedUsers...)
}

// Authorize adds id to the authorized set and persists only if it was absent.
// It reports whether a change occurred.
func (a *Access) Authorize(id int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reload()
	return a.authorize(id)
}

func (a *Access) authorize(id int64) bool {
	if entity.Contains(a.doc.AuthorizedUsers, id) {
		return false
	}
	a.doc.AuthorizedUsers = append(a.doc.AuthorizedUsers, id)
	a.save()
	return true
}

// Ban revokes authorization and adds id to the banned set, persisting after each change.
func (a *Access) Ban(id int64) bool {
	if id <= 0 {
		a.log.With(sl.User(id)).Warn("refusing to ban invalid id")
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reload()

	var removed bool
	if a.doc.AuthorizedUsers, removed = entity.Remove(a.doc.AuthorizedUsers, id); removed {
		a.save()
	}
	if !entity.Contains(a.doc.BannedUsers, id) {
		a.doc.BannedUsers = append(a.doc.BannedUsers, id)
		a.save()
	}
	a.log.With(sl.User(id), slog.Bool("was_authorized", removed)).Info("user banned")
	return true
}

// Unban removes id from the banned set. Authorization is not restored.
func (a *Access) Unban(id int64) bool {
	if id <= 0 {
		a.log.With(sl.User(id)).Warn("refusing to unban invalid id")
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reload()

	var removed bool
	if a.doc.BannedUsers, removed = entity.Remove(a.doc.BannedUsers, id); removed {
		a.save()
		a.log.With(sl.User(id)).Info("user unbanned")
	}
	return true
}

// GenerateCode appends a new unused code expiring after the configured lifetime
// and returns the code with its expiration timestamp.
func (a *Access) GenerateCode(issuerId int64, issuerName string) (string, string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reload()

	var code string
	for {
		var err error
		code, err = randomCode(a.opts.codeLength)
		if err != nil {
			return "", "", fmt.Errorf("generating code: %w", err)
		}
		if !a.exists(code) {
			break
		}
	}
	expiration := clock.ISO(a.opts.now().Add(a.opts.codeTTL))
	a.doc.Codes = append(a.doc.Codes, entity.AccessCode{
		Code:       code,
		Expiration: expiration,
		CreatedBy:  issuerId,
		Used:       false,
	})
	a.save()
	a.log.With(
		slog.Int64("issuer", issuerId),
		slog.String("issuer_name", issuerName),
		slog.String("expiration", expiration),
	).Info("access code generated")
	return code, expiration, nil
}

func (a *Access) exists(code string) bool {
	for _, c := range a.doc.Codes {
		if c.Code == code {
			return true
		}
	}
	return false
}

// randomCode draws length characters uniformly from CodeAlphabet.
func randomCode(length int) (string, error) {
	max := big.NewInt(int64(len(CodeAlphabet)))
	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(CodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// MarkUsed redeems the first unused, unexpired record matching code and authorizes
// the user. It returns false when no such record exists. An expired code is refused
// even before the purge job removes it.
func (a *Access) MarkUsed(code string, userId int64, username string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reload()

	now := a.now()
	for i := range a.doc.Codes {
		entry := &a.doc.Codes[i]
		if entry.Code != code || entry.Used {
			continue
		}
		if entry.Expiration <= now {
			a.log.With(slog.String("code", code), sl.User(userId)).Info("expired code presented")
			return false
		}
		entry.Used = true
		entry.UsedBy = &entity.CodeUser{Id: userId, Username: username}
		if !entity.Contains(a.doc.AuthorizedUsers, userId) {
			a.doc.AuthorizedUsers = append(a.doc.AuthorizedUsers, userId)
		}
		a.save()
		a.log.With(slog.String("code", code), sl.User(userId)).Info("access code used")
		return true
	}
	return false
}

// ListActive returns codes that are unused and not yet expired.
func (a *Access) ListActive() []entity.AccessCode {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reload()

	now := a.now()
	active := make([]entity.AccessCode, 0, len(a.doc.Codes))
	for _, code := range a.doc.Codes {
		if code.IsActive(now) {
			active = append(active, code)
		}
	}
	return active
}

// ListUsed returns codes that have been redeemed.
func (a *Access) ListUsed() []entity.AccessCode {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reload()

	used := make([]entity.AccessCode, 0, len(a.doc.Codes))
	for _, code := range a.doc.Codes {
		if code.Used {
			used = append(used, code.Clone())
		}
	}
	return used
}

// PurgeExpired removes every code whose expiration has passed, used or not,
// and returns how many were removed.
func (a *Access) PurgeExpired() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, missing := a.reload()

	now := a.now()
	kept := make([]entity.AccessCode, 0, len(a.doc.Codes))
	for _, code := range a.doc.Codes {
		if code.Expiration > now {
			kept = append(kept, code)
		}
	}
	removed := len(a.doc.Codes) - len(kept)
	a.doc.Codes = kept
	if removed > 0 || missing {
		a.save()
	}
	if removed > 0 {
		a.log.With(slog.Int("removed", removed)).Info("expired codes purged")
	}
	return removed
}

// Snapshot returns a copy of the current document.
func (a *Access) Snapshot() entity.AccessDocument {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reload()
	return a.doc.Clone()
}

// ActiveCount returns the number of redeemable codes.
func (a *Access) ActiveCount() int {
	return len(a.ListActive())
}
