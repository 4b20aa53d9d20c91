package hrm

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".session")
	session := Session{
		SessionId: "abc123",
		Cookies: map[string]string{
			SessionCookie: "abc123",
			"_locale":     "en_US",
		},
		CreatedAt: time.Now(),
	}

	require.NoError(t, SaveSession(path, session))

	loaded, ok := LoadSession(path)
	require.True(t, ok)
	require.Equal(t, session.SessionId, loaded.SessionId)
	require.Equal(t, session.Cookies, loaded.Cookies)
	require.True(t, session.CreatedAt.Equal(loaded.CreatedAt))
}

func TestSaveSessionOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".session")

	require.NoError(t, SaveSession(path, SessionFromId("old")))
	require.NoError(t, SaveSession(path, SessionFromId("new")))

	loaded, ok := LoadSession(path)
	require.True(t, ok)
	require.Equal(t, "new", loaded.SessionId)
}

func TestLoadSessionAbsent(t *testing.T) {
	_, ok := LoadSession(filepath.Join(t.TempDir(), "nope"))
	require.False(t, ok)
}

func TestLoadSessionCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".session")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, ok := LoadSession(path)
	require.False(t, ok)

	// a later save repairs the file
	require.NoError(t, SaveSession(path, SessionFromId("fresh")))
	loaded, ok := LoadSession(path)
	require.True(t, ok)
	require.Equal(t, "fresh", loaded.SessionId)
}

func TestLoadSessionWithoutId(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".session")
	require.NoError(t, os.WriteFile(path, []byte(`{"phpsessid":""}`), 0600))

	_, ok := LoadSession(path)
	require.False(t, ok)
}

func TestSessionFromId(t *testing.T) {
	session := SessionFromId("xyz")
	require.True(t, session.Valid())
	require.Equal(t, "xyz", session.Cookies[SessionCookie])
}
