package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, now time.Time) *CookieStore {
	t.Helper()
	cs := NewCookieStore(filepath.Join(t.TempDir(), "cfg", "cookies.json"))
	cs.now = func() time.Time { return now }
	return cs
}

func sessionCookies(expires time.Time) []*network.Cookie {
	cookies := []*network.Cookie{
		{Name: "auth_token", Value: "tok", Domain: ".x.com", Path: "/", Expires: float64(expires.Unix())},
		{Name: "ct0", Value: "csrf", Domain: ".x.com", Path: "/", Expires: float64(expires.Add(time.Hour).Unix())},
		{Name: "guest_id", Value: "g", Domain: "twitter.com", Path: "/"},
	}
	// Browsers always report these; the JSON decoder rejects empty enum values.
	for _, c := range cookies {
		c.Priority = network.CookiePriorityMedium
		c.SourceScheme = network.CookieSourceSchemeSecure
	}
	return cookies
}

func TestSaveLoad(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cs := newTestStore(t, now)
	expires := now.Add(24 * time.Hour)

	require.NoError(t, cs.Save(sessionCookies(expires)))

	stored, err := cs.Load()
	require.NoError(t, err)
	assert.Len(t, stored.Cookies, 3)
	assert.True(t, stored.CapturedAt.Equal(now))
	assert.Equal(t, expires.Unix(), stored.ExpiresAt.Unix(), "earliest session cookie expiry")

	info, err := os.Stat(cs.path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestIsValid(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("fresh", func(t *testing.T) {
		cs := newTestStore(t, now)
		require.NoError(t, cs.Save(sessionCookies(now.Add(time.Hour))))
		assert.True(t, cs.IsValid())
	})

	t.Run("expired", func(t *testing.T) {
		cs := newTestStore(t, now)
		require.NoError(t, cs.Save(sessionCookies(now.Add(-time.Hour))))
		assert.False(t, cs.IsValid())
	})

	t.Run("missing ct0", func(t *testing.T) {
		cs := newTestStore(t, now)
		require.NoError(t, cs.Save(sessionCookies(now.Add(time.Hour))[:1]))
		assert.False(t, cs.IsValid())
	})

	t.Run("nothing stored", func(t *testing.T) {
		assert.False(t, newTestStore(t, now).IsValid())
	})
}

func TestGetXCookiesFiltersDomain(t *testing.T) {
	now := time.Now()
	cs := newTestStore(t, now)
	require.NoError(t, cs.Save(sessionCookies(now.Add(time.Hour))))

	cookies, err := cs.GetXCookies()
	require.NoError(t, err)
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		assert.Equal(t, ".x.com", c.Domain)
	}
}

func TestClear(t *testing.T) {
	now := time.Now()
	cs := newTestStore(t, now)
	require.NoError(t, cs.Save(sessionCookies(now.Add(time.Hour))))

	require.NoError(t, cs.Clear())
	assert.False(t, cs.IsValid())
	require.NoError(t, cs.Clear(), "clearing twice is fine")

	m := NewManager(cs)
	assert.False(t, m.IsAuthenticated())
	_, err := m.GetCookies()
	assert.ErrorIs(t, err, os.ErrNotExist)
}
