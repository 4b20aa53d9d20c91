package hrm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseUrl string) *Client {
	client, err := NewClient(ClientOptions{
		BaseUrl: baseUrl,
		Session: SessionFromId("test-session"),
	})
	require.NoError(t, err)
	return client
}

func TestFetchPageCachesRecentPages(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, resultsPage(1, 1, "", contactRow("E001", "A", "A", "a@trna.com.vn")))
	}))
	defer srv.Close()
	client := newTestClient(t, srv.URL)

	query := BuildQuery(7, "", 0)
	first, err := client.FetchPage(context.Background(), query)
	require.NoError(t, err)
	second, err := client.FetchPage(context.Background(), query)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.EqualValues(t, 1, hits.Load())
}

func TestFetchPageSendsSessionCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		require.NoError(t, err)
		require.Equal(t, "test-session", cookie.Value)
		fmt.Fprint(w, resultsPage(1, 1, "", contactRow("E001", "A", "A", "a@trna.com.vn")))
	}))
	defer srv.Close()
	client := newTestClient(t, srv.URL)

	_, err := client.FetchPage(context.Background(), BuildQuery(7, "", 0))
	require.NoError(t, err)
}

func TestFetchPageExpiredSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, casLoginPage)
	}))
	defer srv.Close()
	client := newTestClient(t, srv.URL)

	_, err := client.FetchPage(context.Background(), BuildQuery(7, "", 0))
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestFetchPageBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	client := newTestClient(t, srv.URL)

	_, err := client.FetchPage(context.Background(), BuildQuery(7, "", 0))
	require.Error(t, err)
}

func TestDetectPageParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, resultsPage(2, 3, "51-100 of 143",
				contactRow("E051", "B", "B", "b@trna.com.vn")))
			return
		}
		fmt.Fprint(w, resultsPage(1, 3, "1-50 of 143",
			contactRow("E001", "A", "A", "a@trna.com.vn")))
	}))
	defer srv.Close()
	client := newTestClient(t, srv.URL)

	param, err := client.DetectPageParam(context.Background(), ProbeOptions{ProjectId: 7})
	require.NoError(t, err)
	require.Equal(t, "page", param)
}

func TestDetectPageParamChangedRows(t *testing.T) {
	// a pager that never marks the current page, the probe falls back
	// to watching the first row change
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		badge := "E001"
		if r.URL.Query().Get("pageNo") == "2" {
			badge = "E051"
		}
		fmt.Fprint(w, resultsPage(0, 3, "", contactRow(badge, "A", "A", "a@trna.com.vn")))
	}))
	defer srv.Close()
	client := newTestClient(t, srv.URL)

	param, err := client.DetectPageParam(context.Background(), ProbeOptions{ProjectId: 7})
	require.NoError(t, err)
	require.Equal(t, "pageNo", param)
}

func TestDetectPageParamSinglePage(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, resultsPage(1, 1, "", contactRow("E001", "A", "A", "a@trna.com.vn")))
	}))
	defer srv.Close()
	client := newTestClient(t, srv.URL)

	param, err := client.DetectPageParam(context.Background(), ProbeOptions{ProjectId: 7})
	require.NoError(t, err)
	require.Empty(t, param)
	// a single page result needs no probe requests at all
	require.EqualValues(t, 1, hits.Load())
}

func TestDetectPageParamUndetectable(t *testing.T) {
	// paging exists but no candidate parameter moves it
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, resultsPage(1, 3, "1-50 of 143",
			contactRow("E001", "A", "A", "a@trna.com.vn")))
	}))
	defer srv.Close()
	client := newTestClient(t, srv.URL)

	_, err := client.DetectPageParam(context.Background(), ProbeOptions{ProjectId: 7})
	require.ErrorIs(t, err, ErrPaginationUndetectable)
}

func TestBuildQuery(t *testing.T) {
	query := BuildQuery(42, "page", 3)
	require.Equal(t, "", query.Get("tf[favorite_contact][]"))
	require.Equal(t, "42", query.Get("tf[project_id][]"))
	require.Equal(t, "3", query.Get("page"))

	query = BuildQuery(42, "", 0)
	require.False(t, query.Has("page"))
}

func TestBaseURL(t *testing.T) {
	require.Equal(t, "https://hrm.trna.com.vn", BaseURL("trna"))
	require.Equal(t, "https://hrm.trna.com.vn", BaseURL("trna.com.vn"))
	require.Equal(t, "https://hrm.trna.com.vn", BaseURL("hrm.trna.com.vn"))
	require.Equal(t, "https://hrm.trna.com.vn", BaseURL("https://hrm.trna.com.vn"))
	require.Equal(t, "http://127.0.0.1:8080", BaseURL("http://127.0.0.1:8080"))
}
