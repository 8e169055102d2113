package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testProvider struct {
	baseURL string
	token   string
}

func (p *testProvider) BaseURL() string { return p.baseURL }

func (p *testProvider) Authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.token)
}

func (p *testProvider) ClassifyStatus(status int, body []byte) error {
	return ClassifyStatus(status, body)
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(&testProvider{baseURL: srv.URL, token: "secret"})
}

func TestDoSendsAuthAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"name":"fsn1"}`)
	}))
	defer srv.Close()

	var out struct {
		Name string `json:"name"`
	}
	err := newTestClient(srv).Do(context.Background(), http.MethodGet, "/regions", nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "fsn1", out.Name)
}

func TestDoClassifiesStatus(t *testing.T) {
	tests := []struct {
		status int
		kind   Kind
	}{
		{http.StatusUnauthorized, KindUnauthorized},
		{http.StatusForbidden, KindUnauthorized},
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusBadGateway, KindServerError},
	}
	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := newTestClient(srv).Do(context.Background(), http.MethodGet, "/x", nil, nil)
			var cerr *Error
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.kind, cerr.Kind)
			assert.Equal(t, tt.status, cerr.StatusCode)
		})
	}
}

func TestDoNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	err := newTestClient(srv).Do(context.Background(), http.MethodGet, "/x", nil, nil)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, KindNetworkError, cerr.Kind)
	assert.True(t, ShouldRetry(err))
}

func TestDoInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer srv.Close()

	var out map[string]any
	err := newTestClient(srv).Do(context.Background(), http.MethodGet, "/x", nil, &out)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, KindInvalidResponse, cerr.Kind)
}

func TestGetPagesWalksAllPages(t *testing.T) {
	const totalPages = 3
	var requested []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		requested = append(requested, r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("per_page"))

		resp := map[string]any{
			"items":       []string{fmt.Sprintf("item-%d", page)},
			"page":        page,
			"total_pages": totalPages,
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	var items []string
	err := newTestClient(srv).GetPages(context.Background(), "/things", nil, func(body []byte) (PageInfo, error) {
		var page struct {
			Items      []string `json:"items"`
			Page       int      `json:"page"`
			TotalPages int      `json:"total_pages"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return PageInfo{}, err
		}
		items = append(items, page.Items...)
		return PageInfo{Page: page.Page, TotalPages: page.TotalPages}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"item-1", "item-2", "item-3"}, items)
	assert.Equal(t, []string{"1", "2", "3"}, requested)
}

func TestGetPagesStopsOnZeroInfo(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	err := newTestClient(srv).GetPages(context.Background(), "/things", nil, func(body []byte) (PageInfo, error) {
		return PageInfo{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
