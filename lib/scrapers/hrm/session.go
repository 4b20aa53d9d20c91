package hrm

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// SessionCookie is the cookie the portal issues once CAS validates the
// service ticket.
const SessionCookie = "PHPSESSID"

// Session is the authenticated state captured at the end of the CAS
// flow. it is an immutable value: expiry produces a replacement, never
// an in-place mutation.
type Session struct {
	SessionId string            `json:"phpsessid"`
	Cookies   map[string]string `json:"cookies"`
	CreatedAt time.Time         `json:"created_at"`
}

func (s Session) Valid() bool {
	return s.SessionId != ""
}

// SessionFromId builds a Session around an explicitly supplied session
// cookie value, for the --phpsessid escape hatch.
func SessionFromId(id string) Session {
	return Session{
		SessionId: id,
		Cookies:   map[string]string{SessionCookie: id},
		CreatedAt: time.Now(),
	}
}

func sessionFromJar(jar http.CookieJar, base *url.URL) Session {
	cookies := map[string]string{}
	for _, c := range jar.Cookies(base) {
		cookies[c.Name] = c.Value
	}
	return Session{
		SessionId: cookies[SessionCookie],
		Cookies:   cookies,
		CreatedAt: time.Now(),
	}
}

// LoadSession reads a previously saved session. an absent, unreadable
// or malformed file is reported as "no session", never as an error,
// staleness is only ever discovered by making a request.
func LoadSession(path string) (Session, bool) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return Session{}, false
	}
	var session Session
	err = json.Unmarshal(contents, &session)
	if err != nil {
		return Session{}, false
	}
	if !session.Valid() {
		return Session{}, false
	}
	return session, true
}

// SaveSession persists the session, overwriting any prior value. the
// write goes through a temp file so a crash can't leave a half-written
// session behind (LoadSession would treat it as no session anyway).
func SaveSession(path string, session Session) error {
	contents, err := json.Marshal(session)
	if err != nil {
		return err
	}
	tmp := filepath.Join(
		filepath.Dir(path),
		"."+filepath.Base(path)+".tmp",
	)
	err = os.WriteFile(tmp, contents, 0600)
	if err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
