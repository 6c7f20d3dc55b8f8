package store

import (
	"regexp"
	"testing"
	"time"

	"botadmin/lib/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const accessName = "access_codes.json"

var codePattern = regexp.MustCompile(`^[A-Z0-9]{8}$`)

func newTestAccess(t *testing.T, docs *memDocuments, clk *fakeClock) *Access {
	t.Helper()
	return NewAccess(docs, accessName, discardLogger(), WithClock(clk.Now))
}

func TestGenerateCode(t *testing.T) {
	docs := newMemDocuments()
	clk := newFakeClock()
	access := newTestAccess(t, docs, clk)

	wantExpiration := clock.ISO(clk.Now().Add(48 * time.Hour))
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, expiration, err := access.GenerateCode(1, "admin")
		require.NoError(t, err)
		assert.Regexp(t, codePattern, code)
		assert.Equal(t, wantExpiration, expiration)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}

	doc := access.Snapshot()
	require.Len(t, doc.Codes, 50)
	for _, code := range doc.Codes {
		assert.False(t, code.Used)
		assert.Nil(t, code.UsedBy)
		assert.Equal(t, int64(1), code.CreatedBy)
	}
}

func TestRandomCodeAlphabet(t *testing.T) {
	for _, length := range []int{1, 8, 16} {
		code, err := randomCode(length)
		require.NoError(t, err)
		assert.Len(t, code, length)
		assert.Regexp(t, `^[A-Z0-9]+$`, code)
	}
}

func TestMarkUsedOnce(t *testing.T) {
	docs := newMemDocuments()
	clk := newFakeClock()
	access := newTestAccess(t, docs, clk)

	code, _, err := access.GenerateCode(1, "admin")
	require.NoError(t, err)

	assert.True(t, access.MarkUsed(code, 42, "alice"))
	assert.False(t, access.MarkUsed(code, 42, "alice"))
	assert.False(t, access.MarkUsed(code, 43, "bob"))

	doc := access.Snapshot()
	assert.Equal(t, []int64{42}, doc.AuthorizedUsers)
	require.Len(t, doc.Codes, 1)
	assert.True(t, doc.Codes[0].Used)
	require.NotNil(t, doc.Codes[0].UsedBy)
	assert.Equal(t, int64(42), doc.Codes[0].UsedBy.Id)
	assert.Equal(t, "alice", doc.Codes[0].UsedBy.Username)
}

func TestMarkUsedNormalisesInput(t *testing.T) {
	docs := newMemDocuments()
	access := newTestAccess(t, docs, newFakeClock())

	code, _, err := access.GenerateCode(1, "admin")
	require.NoError(t, err)
	assert.True(t, access.MarkUsed("  "+lower(code)+" ", 5, ""))
	assert.True(t, access.IsAuthorized(5))
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

func TestMarkUsedUnknownOrExpired(t *testing.T) {
	docs := newMemDocuments()
	clk := newFakeClock()
	access := newTestAccess(t, docs, clk)

	assert.False(t, access.MarkUsed("", 42, ""))
	assert.False(t, access.MarkUsed("NOPE1234", 42, ""))

	code, _, err := access.GenerateCode(1, "admin")
	require.NoError(t, err)
	clk.Advance(48 * time.Hour)
	assert.False(t, access.MarkUsed(code, 42, ""))
	assert.False(t, access.IsAuthorized(42))
}

func TestListActiveAndUsed(t *testing.T) {
	docs := newMemDocuments()
	clk := newFakeClock()
	access := newTestAccess(t, docs, clk)

	first, _, err := access.GenerateCode(1, "admin")
	require.NoError(t, err)
	clk.Advance(24 * time.Hour)
	_, _, err = access.GenerateCode(1, "admin")
	require.NoError(t, err)
	require.True(t, access.MarkUsed(first, 9, "nine"))

	assert.Len(t, access.ListActive(), 1)
	assert.Len(t, access.ListUsed(), 1)
	assert.Equal(t, 1, access.ActiveCount())

	clk.Advance(48 * time.Hour)
	assert.Empty(t, access.ListActive())
}

func TestPurgeExpired(t *testing.T) {
	docs := newMemDocuments()
	clk := newFakeClock()
	now := clock.ISO(clk.Now())
	docs.put(accessName, `{
		"authorized_users": [1],
		"banned_users": [],
		"codes": [
			{"code": "AAAAAAAA", "expiration": "2024-05-09T12:00:00.000000", "created_by": 1, "used": true, "used_by": {"id": 3, "username": "c"}},
			{"code": "BBBBBBBB", "expiration": "2024-05-10T11:59:59.999999", "created_by": 1, "used": false},
			{"code": "CCCCCCCC", "expiration": "`+now+`", "created_by": 1, "used": false},
			{"code": "DDDDDDDD", "expiration": "2024-05-11T12:00:00.000000", "created_by": 1, "used": true, "used_by": {"id": 4, "username": "d"}},
			{"code": "EEEEEEEE", "expiration": "2024-05-12T12:00:00.000000", "created_by": 1, "used": false}
		]
	}`)

	access := newTestAccess(t, docs, clk)
	doc := access.Snapshot()
	require.Len(t, doc.Codes, 2)
	assert.Equal(t, "DDDDDDDD", doc.Codes[0].Code)
	assert.Equal(t, "EEEEEEEE", doc.Codes[1].Code)
	assert.Equal(t, 1, docs.saved(accessName))

	assert.Equal(t, 0, access.PurgeExpired())
	assert.Equal(t, 1, docs.saved(accessName))

	clk.Advance(24 * time.Hour)
	assert.Equal(t, 1, access.PurgeExpired())
	assert.Len(t, access.Snapshot().Codes, 1)
}

func TestPurgeCreatesMissingDocument(t *testing.T) {
	docs := newMemDocuments()
	newTestAccess(t, docs, newFakeClock())
	assert.Equal(t, 1, docs.saved(accessName))
}

func TestInvalidCodesDropped(t *testing.T) {
	docs := newMemDocuments()
	docs.put(accessName, `{
		"authorized_users": [1],
		"codes": [
			{"code": "lower123", "expiration": "2030-01-01T00:00:00.000000"},
			{"code": "AB-12345", "expiration": "2030-01-01T00:00:00.000000"},
			{"code": "GOOD1234", "expiration": ""},
			{"code": "GOOD5678", "expiration": "2030-01-01T00:00:00.000000", "used_by": 12, "used": true}
		]
	}`)

	access := newTestAccess(t, docs, newFakeClock())
	doc := access.Snapshot()
	require.Len(t, doc.Codes, 1)
	assert.Equal(t, "GOOD5678", doc.Codes[0].Code)
	require.NotNil(t, doc.Codes[0].UsedBy)
	assert.Equal(t, int64(12), doc.Codes[0].UsedBy.Id)
	assert.Equal(t, []int64{}, doc.BannedUsers)
}

func TestAuthorize(t *testing.T) {
	docs := newMemDocuments()
	access := newTestAccess(t, docs, newFakeClock())
	before := docs.saved(accessName)

	assert.True(t, access.Authorize(10))
	assert.False(t, access.Authorize(10))
	assert.Equal(t, before+1, docs.saved(accessName))
	assert.True(t, access.IsAuthorized(10))
	assert.Equal(t, []int64{10}, access.Reload())
}

func TestChecksReloadDocument(t *testing.T) {
	docs := newMemDocuments()
	access := newTestAccess(t, docs, newFakeClock())
	assert.False(t, access.IsAuthorized(77))

	docs.put(accessName, `{"authorized_users": [77], "banned_users": [78], "codes": []}`)
	assert.True(t, access.IsAuthorized(77))
	assert.True(t, access.IsBanned(78))
}

func TestChecksFailOpen(t *testing.T) {
	docs := newMemDocuments()
	access := newTestAccess(t, docs, newFakeClock())
	require.True(t, access.Authorize(5))
	require.True(t, access.Ban(6))

	docs.loadErr = errBroken
	assert.False(t, access.IsAuthorized(5))
	assert.False(t, access.IsBanned(6))

	docs.loadErr = nil
	docs.put(accessName, `{not json`)
	assert.False(t, access.IsAuthorized(5))
	assert.False(t, access.IsBanned(6))
}

func TestBanAndUnban(t *testing.T) {
	docs := newMemDocuments()
	access := newTestAccess(t, docs, newFakeClock())
	require.True(t, access.Authorize(7))

	assert.True(t, access.Ban(7))
	doc := access.Snapshot()
	assert.NotContains(t, doc.AuthorizedUsers, int64(7))
	assert.Contains(t, doc.BannedUsers, int64(7))
	assert.True(t, access.IsBanned(7))

	assert.True(t, access.Ban(7))
	assert.Equal(t, []int64{7}, access.Snapshot().BannedUsers)

	assert.True(t, access.Unban(7))
	doc = access.Snapshot()
	assert.NotContains(t, doc.BannedUsers, int64(7))
	assert.NotContains(t, doc.AuthorizedUsers, int64(7))

	assert.True(t, access.Unban(7))
	assert.False(t, access.Ban(0))
	assert.False(t, access.Ban(-3))
	assert.False(t, access.Unban(0))
}

func TestSaveFailureKeepsMemory(t *testing.T) {
	docs := newMemDocuments()
	access := newTestAccess(t, docs, newFakeClock())

	docs.saveErr = errBroken
	code, _, err := access.GenerateCode(1, "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, code)
	assert.Equal(t, 1, docs.saved(accessName))
}

func TestScenarioRedeemCode(t *testing.T) {
	docs := newMemDocuments()
	access := newTestAccess(t, docs, newFakeClock())

	codes := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		code, _, err := access.GenerateCode(1, "admin")
		require.NoError(t, err)
		codes = append(codes, code)
	}
	require.Len(t, access.ListActive(), 3)

	require.True(t, access.MarkUsed(codes[1], 42, "user42"))
	assert.Len(t, access.ListActive(), 2)
	used := access.ListUsed()
	require.Len(t, used, 1)
	require.NotNil(t, used[0].UsedBy)
	assert.Equal(t, int64(42), used[0].UsedBy.Id)
	assert.Contains(t, access.Snapshot().AuthorizedUsers, int64(42))
}

func TestScenarioBanUnban(t *testing.T) {
	docs := newMemDocuments()
	access := newTestAccess(t, docs, newFakeClock())
	require.True(t, access.Authorize(7))

	require.True(t, access.Ban(7))
	doc := access.Snapshot()
	assert.NotContains(t, doc.AuthorizedUsers, int64(7))
	assert.Contains(t, doc.BannedUsers, int64(7))

	require.True(t, access.Unban(7))
	doc = access.Snapshot()
	assert.NotContains(t, doc.BannedUsers, int64(7))
	assert.NotContains(t, doc.AuthorizedUsers, int64(7))
}

func TestStatePersistsAcrossStores(t *testing.T) {
	docs := newMemDocuments()
	clk := newFakeClock()
	first := newTestAccess(t, docs, clk)
	code, _, err := first.GenerateCode(1, "admin")
	require.NoError(t, err)

	second := newTestAccess(t, docs, clk)
	assert.True(t, second.MarkUsed(code, 8, ""))
	assert.True(t, first.IsAuthorized(8))
}
