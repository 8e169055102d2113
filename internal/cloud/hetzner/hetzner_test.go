package hetzner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halyard-dev/halyard/internal/cloud"
)

func newTestClient(srv *httptest.Server) *Client {
	c := New("token")
	c.baseURL = srv.URL
	return c
}

func TestListRegions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/locations", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"locations":[{"name":"fsn1","description":"Falkenstein DC Park 1","country":"DE"}]}`)
	}))
	defer srv.Close()

	regions, err := newTestClient(srv).ListRegions(context.Background())
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, cloud.Region{ID: "fsn1", Name: "Falkenstein DC Park 1", Country: "DE"}, regions[0])
}

func TestListSizesSkipsDeprecated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"server_types":[
			{"id":1,"name":"cx11","cores":1,"memory":2,"disk":20,"deprecated":true},
			{"id":2,"name":"cx22","cores":2,"memory":4,"disk":40,"deprecated":false}
		]}`)
	}))
	defer srv.Close()

	sizes, err := newTestClient(srv).ListSizes(context.Background())
	require.NoError(t, err)
	require.Len(t, sizes, 1)
	assert.Equal(t, "cx22", sizes[0].ID)
	assert.Equal(t, 4.0, sizes[0].MemoryGB)
}

func TestCreateServerUploadsKeyFirst(t *testing.T) {
	var keyBody, serverBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ssh_keys":
			require.Equal(t, http.MethodPost, r.Method)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&keyBody))
			fmt.Fprint(w, `{"ssh_key":{"id":77}}`)
		case "/servers":
			require.Equal(t, http.MethodPost, r.Method)
			require.NotNil(t, keyBody, "SSH key must be uploaded before the server call")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&serverBody))
			fmt.Fprint(w, `{"server":{"id":42,"name":"web-1","status":"initializing","public_net":{"ipv4":{"ip":""}}}}`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	info, err := newTestClient(srv).CreateServer(context.Background(), cloud.ServerRequest{
		Name:         "web-1",
		Region:       "fsn1",
		Size:         "cx22",
		Image:        "ubuntu-24.04",
		SSHPublicKey: "ssh-ed25519 AAAA...",
	})
	require.NoError(t, err)
	assert.Equal(t, "42", info.ID)
	assert.Empty(t, info.IPv4)

	assert.Equal(t, "ssh-ed25519 AAAA...", keyBody["public_key"])
	assert.Equal(t, "cx22", serverBody["server_type"])
	assert.Equal(t, []any{float64(77)}, serverBody["ssh_keys"])
}

func TestGetServerParsesAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/servers/42", r.URL.Path)
		fmt.Fprint(w, `{"server":{"id":42,"name":"web-1","status":"running","public_net":{"ipv4":{"ip":"203.0.113.7"}}}}`)
	}))
	defer srv.Close()

	info, err := newTestClient(srv).GetServer(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", info.IPv4)
	assert.Equal(t, "running", info.Status)
}

func TestUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := newTestClient(srv).ValidateCredentials(context.Background())
	var cerr *cloud.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, cloud.KindUnauthorized, cerr.Kind)
	assert.False(t, cloud.ShouldRetry(err))
}
