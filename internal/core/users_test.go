package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsewatch.io/sentiment-api/internal/cache"
	"pulsewatch.io/sentiment-api/internal/store"
)

func newUserFixture(t *testing.T) (*UserService, *cache.MemoryCache) {
	t.Helper()
	db := newTestStore(t)
	pc := cache.NewMemoryCache()
	return NewUserService(db, pc), pc
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, _ := newUserFixture(t)

	user, err := svc.Register(RegisterParams{
		Email:    "Alice@Example.com",
		Username: "alice",
		Password: "s3cret",
		Role:     store.RoleNormal,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email, "email stored lower-cased")
	assert.NotEqual(t, "s3cret", user.PasswordHash, "password must be stored hashed")

	authed, err := svc.Authenticate("alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	_, err = svc.Authenticate("alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newUserFixture(t)

	_, err := svc.Register(RegisterParams{Email: "bob@example.com", Username: "bob", Password: "pw", Role: store.RoleNormal})
	require.NoError(t, err)

	_, err = svc.Register(RegisterParams{Email: "BOB@example.com", Username: "bob2", Password: "pw", Role: store.RoleNormal})
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestGetByEmailPopulatesCache(t *testing.T) {
	svc, pc := newUserFixture(t)

	_, err := svc.Register(RegisterParams{Email: "carol@example.com", Username: "carol", Password: "pw", Role: store.RoleEnterprise, CompanyName: "Acme", BusinessAddress: "1 Main St", TaxID: "T-1"})
	require.NoError(t, err)

	_, ok := pc.Get(cache.ProfileKey("carol@example.com"))
	assert.False(t, ok)

	user, err := svc.GetByEmail("carol@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)

	cached, ok := pc.Get(cache.ProfileKey("carol@example.com"))
	require.True(t, ok)
	assert.Equal(t, user.ID, cached.ID)

	missing, err := svc.GetByEmail("nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdateProfileInvalidatesCache(t *testing.T) {
	svc, pc := newUserFixture(t)

	_, err := svc.Register(RegisterParams{Email: "dave@example.com", Username: "dave", Password: "pw", Role: store.RoleEnterprise, CompanyName: "Acme", BusinessAddress: "1 Main St", TaxID: "T-1"})
	require.NoError(t, err)

	// Warm the cache, then mutate.
	_, err = svc.GetByEmail("dave@example.com")
	require.NoError(t, err)

	updated, err := svc.UpdateProfile("dave@example.com", "david", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "david", updated.Username)
	assert.Equal(t, "Acme", updated.CompanyName, "empty fields keep current values")

	_, ok := pc.Get(cache.ProfileKey("dave@example.com"))
	assert.False(t, ok, "mutation must delete the cached profile")
}

func TestChangePassword(t *testing.T) {
	svc, pc := newUserFixture(t)

	_, err := svc.Register(RegisterParams{Email: "erin@example.com", Username: "erin", Password: "old-pw", Role: store.RoleNormal})
	require.NoError(t, err)
	_, err = svc.GetByEmail("erin@example.com")
	require.NoError(t, err)

	err = svc.ChangePassword("erin@example.com", "bad-old", "new-pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword("erin@example.com", "old-pw", "new-pw"))

	_, ok := pc.Get(cache.ProfileKey("erin@example.com"))
	assert.False(t, ok, "credential mutation must delete the cached profile")

	_, err = svc.Authenticate("erin@example.com", "old-pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate("erin@example.com", "new-pw")
	assert.NoError(t, err)
}

func TestLogoutInvalidatesCache(t *testing.T) {
	svc, pc := newUserFixture(t)

	_, err := svc.Register(RegisterParams{Email: "frank@example.com", Username: "frank", Password: "pw", Role: store.RoleNormal})
	require.NoError(t, err)
	_, err = svc.GetByEmail("frank@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.Logout("Frank@Example.com"))
	_, ok := pc.Get(cache.ProfileKey("frank@example.com"))
	assert.False(t, ok)
}
