package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAdmin(t *testing.T) {
	a := New([]int64{30, 10}, "")
	assert.True(t, a.IsAdmin(10))
	assert.False(t, a.IsAdmin(20))
	assert.Equal(t, []int64{10, 30}, a.AdminIds())
	assert.Empty(t, New(nil, "").AdminIds())
}

func TestUserByToken(t *testing.T) {
	a := New(nil, "secret-token")
	user, err := a.UserByToken("secret-token")
	require.NoError(t, err)
	assert.Equal(t, ApiUser, user)

	_, err = a.UserByToken("other")
	assert.Error(t, err)

	_, err = New(nil, "").UserByToken("")
	assert.Error(t, err)
}
