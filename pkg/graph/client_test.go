package graph

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens string

func (s staticTokens) Token(context.Context) (string, error) { return string(s), nil }

func TestListMessagesFollowsPaging(t *testing.T) {
	var page2URL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `{"value":[{"id":"MC2"}]}`)
			return
		}
		fmt.Fprintf(w, `{"value":[{"id":"MC1"}],"@odata.nextLink":%q}`, page2URL)
	}))
	defer srv.Close()
	page2URL = srv.URL + "/admin/serviceAnnouncement/messages?page=2"

	c := NewClient(staticTokens("tok"), WithBaseURL(srv.URL), WithPageSize(1))
	pages, err := c.ListMessages(context.Background())
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Contains(t, string(pages[0]), "MC1")
	assert.Contains(t, string(pages[1]), "MC2")
}

func TestListMessagesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(staticTokens("tok"), WithBaseURL(srv.URL))
	_, err := c.ListMessages(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestClientCredentialsCachesToken(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		assert.Equal(t, "app-id", r.Form.Get("client_id"))
		fmt.Fprint(w, `{"access_token":"abc","expires_in":3600}`)
	}))
	defer srv.Close()

	p := NewClientCredentials("tenant", "app-id", "secret")
	p.LoginURL = srv.URL

	tok, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	_, err = p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientCredentialsRejectsEmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"expires_in":3600}`)
	}))
	defer srv.Close()

	p := NewClientCredentials("tenant", "app-id", "secret")
	p.LoginURL = srv.URL

	_, err := p.Token(context.Background())
	assert.Error(t, err)
}
