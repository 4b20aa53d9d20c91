package hrm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// casPortal is a minimal stand-in for the portal plus its CAS server,
// close enough for the ticket exchange to run end to end.
type casPortal struct {
	cas    *httptest.Server
	portal *httptest.Server
}

func setupCasPortal(t *testing.T) *casPortal {
	p := &casPortal{}

	casMux := http.NewServeMux()
	casMux.HandleFunc("/cas/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprintf(w, `<html><body>
				<form id="fm1" action="/cas/login?service=%s" method="post">
					<input type="hidden" name="execution" value="e1s1"/>
					<input type="hidden" name="_eventId" value="submit"/>
					<input name="username"/>
					<input name="password"/>
				</form>
			</body></html>`, r.URL.Query().Get("service"))
			return
		}

		require.NoError(t, r.ParseForm())
		// the hidden fields must be lifted off the form verbatim
		require.Equal(t, "e1s1", r.PostFormValue("execution"))
		require.Equal(t, "submit", r.PostFormValue("_eventId"))

		if r.PostFormValue("username") != "jdoe" || r.PostFormValue("password") != "hunter2" {
			// CAS re-renders its form on bad credentials
			fmt.Fprint(w, casLoginPage)
			return
		}
		http.Redirect(
			w, r,
			p.portal.URL+"/index.php/pim/viewContactSearch?ticket=ST-1",
			http.StatusFound,
		)
	})
	p.cas = httptest.NewServer(casMux)
	t.Cleanup(p.cas.Close)

	portalMux := http.NewServeMux()
	portalMux.HandleFunc("/index.php/auth/validateCredentials", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(
			w, r,
			p.cas.URL+"/cas/login?service="+p.portal.URL,
			http.StatusFound,
		)
	})
	portalMux.HandleFunc("/index.php/pim/viewContactSearch", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ticket") == "ST-1" {
			http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "sess-1", Path: "/"})
			http.Redirect(w, r, "/index.php/pim/viewContactSearch", http.StatusFound)
			return
		}
		fmt.Fprint(w, "<html><body>welcome</body></html>")
	})
	p.portal = httptest.NewServer(portalMux)
	t.Cleanup(p.portal.Close)

	return p
}

func TestLogin(t *testing.T) {
	p := setupCasPortal(t)

	session, err := Login(context.Background(), p.portal.URL, Credentials{
		Username: "jdoe",
		Password: "hunter2",
	})
	require.NoError(t, err)
	require.True(t, session.Valid())
	require.Equal(t, "sess-1", session.SessionId)
	require.Equal(t, "sess-1", session.Cookies[SessionCookie])
}

func TestLoginWrongPassword(t *testing.T) {
	p := setupCasPortal(t)

	_, err := Login(context.Background(), p.portal.URL, Credentials{
		Username: "jdoe",
		Password: "wrong",
	})
	require.ErrorIs(t, err, ErrLoginFailed)
}

func TestLoginTicketlessRedirect(t *testing.T) {
	cas := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, casLoginPage)
			return
		}
		// bounces back to itself instead of forward with a ticket
		http.Redirect(w, r, "/cas/login", http.StatusFound)
	}))
	defer cas.Close()
	portal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, cas.URL+"/cas/login", http.StatusFound)
	}))
	defer portal.Close()

	_, err := Login(context.Background(), portal.URL, Credentials{
		Username: "jdoe",
		Password: "hunter2",
	})
	require.ErrorIs(t, err, ErrLoginFailed)
}

func TestLoginWithoutCas(t *testing.T) {
	// some deployments validate credentials directly and set the
	// session cookie on the spot
	portal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/index.php/auth/validateCredentials", r.URL.Path)
		http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "direct-1", Path: "/"})
		fmt.Fprint(w, "<html><body>ok</body></html>")
	}))
	defer portal.Close()

	session, err := Login(context.Background(), portal.URL, Credentials{
		Username: "jdoe",
		Password: "hunter2",
	})
	require.NoError(t, err)
	require.Equal(t, "direct-1", session.SessionId)
}
