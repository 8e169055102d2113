package cloudflare

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halyard-dev/halyard/internal/cloud"
)

func envelopeOK(result any) string {
	data, _ := json.Marshal(map[string]any{
		"success": true,
		"errors":  []any{},
		"result":  result,
	})
	return string(data)
}

func envelopeErr(code int, message string) string {
	data, _ := json.Marshal(map[string]any{
		"success": false,
		"errors":  []map[string]any{{"code": code, "message": message}},
		"result":  nil,
	})
	return string(data)
}

func newTestClient(srv *httptest.Server) *Client {
	return New(Config{APIToken: "tok", AccountID: "acc1", BaseURL: srv.URL})
}

func TestAuthorizeToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("X-Auth-Email"))
		fmt.Fprint(w, envelopeOK(map[string]string{"status": "active"}))
	}))
	defer srv.Close()

	err := newTestClient(srv).ValidateCredentials(context.Background())
	require.NoError(t, err)
}

func TestAuthorizeGlobalKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user", r.URL.Path)
		assert.Equal(t, "me@example.com", r.Header.Get("X-Auth-Email"))
		assert.Equal(t, "gkey", r.Header.Get("X-Auth-Key"))
		fmt.Fprint(w, envelopeOK(map[string]string{"id": "u1"}))
	}))
	defer srv.Close()

	c := New(Config{Email: "me@example.com", APIKey: "gkey", BaseURL: srv.URL})
	require.NoError(t, c.ValidateCredentials(context.Background()))
}

func TestEnvelopeErrorClassification(t *testing.T) {
	tests := []struct {
		code int
		kind cloud.Kind
	}{
		{9103, cloud.KindUnauthorized},
		{10000, cloud.KindUnauthorized},
		{9109, cloud.KindUnauthorized},
		{81053, cloud.KindRecordConflict},
		{81057, cloud.KindRecordConflict},
		{9021, cloud.KindInvalidRecordType},
		{81062, cloud.KindDNSSECError},
		{81022, cloud.KindZoneLocked},
		{7003, cloud.KindAPIError},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("code_%d", tt.code), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, envelopeErr(tt.code, "nope"))
			}))
			defer srv.Close()

			err := newTestClient(srv).ValidateCredentials(context.Background())
			var cerr *cloud.Error
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.kind, cerr.Kind)
			assert.Equal(t, tt.code, cerr.Code)
		})
	}
}

func TestResolveAccountDiscoversAndCaches(t *testing.T) {
	var accountCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/accounts":
			accountCalls++
			fmt.Fprint(w, envelopeOK([]map[string]string{{"id": "acc-disc", "name": "main"}}))
		case "/accounts/acc-disc/cfd_tunnel":
			fmt.Fprint(w, envelopeOK([]map[string]string{}))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(Config{APIToken: "tok", BaseURL: srv.URL})
	_, err := c.ListTunnels(context.Background())
	require.NoError(t, err)
	_, err = c.ListTunnels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, accountCalls)
}

func TestResolveAccountEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, envelopeOK([]map[string]string{}))
	}))
	defer srv.Close()

	c := New(Config{APIToken: "tok", BaseURL: srv.URL})
	_, err := c.ListTunnels(context.Background())
	var cerr *cloud.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, cloud.KindNoAccountFound, cerr.Kind)
}

func TestListZonesFollowsPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/zones", r.URL.Path)
		page := r.URL.Query().Get("page")
		resp := map[string]any{
			"success": true,
			"errors":  []any{},
			"result":  []map[string]any{{"id": "zone-" + page, "name": "z" + page + ".com"}},
			"result_info": map[string]int{
				"page":        atoi(page),
				"per_page":    50,
				"total_pages": 2,
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	zones, err := newTestClient(srv).ListZones(context.Background())
	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, "zone-1", zones[0].ID)
	assert.Equal(t, "zone-2", zones[1].ID)
}

func atoi(s string) int {
	var n int
	fmt.Sscanf(s, "%d", &n)
	return n
}

func TestCreateTunnelGeneratesSecret(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounts/acc1/cfd_tunnel", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, envelopeOK(map[string]string{"id": "f8a9b1c2-3d4e-5f60-7182-93a4b5c6d7e8", "name": "app.example.com"}))
	}))
	defer srv.Close()

	info, err := newTestClient(srv).CreateTunnel(context.Background(), "app.example.com")
	require.NoError(t, err)
	assert.Equal(t, "f8a9b1c2-3d4e-5f60-7182-93a4b5c6d7e8", info.ID)

	assert.Equal(t, "cloudflare", gotBody["config_src"])
	secret, err := base64.StdEncoding.DecodeString(gotBody["tunnel_secret"].(string))
	require.NoError(t, err)
	assert.Len(t, secret, 32)
	assert.Equal(t, gotBody["tunnel_secret"], info.Secret)
}

func TestTunnelOperationsRejectBadID(t *testing.T) {
	c := New(Config{APIToken: "tok", AccountID: "acc1", BaseURL: "http://127.0.0.1:0"})
	ctx := context.Background()

	_, err := c.GetTunnel(ctx, "nope")
	assert.Error(t, err)
	assert.Error(t, c.DeleteTunnel(ctx, "nope"))
	_, err = c.GetTunnelConfiguration(ctx, "nope")
	assert.Error(t, err)
	assert.Error(t, c.ConfigureTunnelIngress(ctx, "nope", nil))
}

func TestConfigureTunnelIngressReplacesFullList(t *testing.T) {
	const tunnelID = "f8a9b1c2-3d4e-5f60-7182-93a4b5c6d7e8"
	var gotBody tunnelConfiguration
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounts/acc1/cfd_tunnel/"+tunnelID+"/configurations", r.URL.Path)
		require.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, envelopeOK(nil))
	}))
	defer srv.Close()

	rules := []cloud.IngressRule{
		{Hostname: "app.example.com", Service: "http://localhost:3000"},
		{Service: "http_status:404"},
	}
	err := newTestClient(srv).ConfigureTunnelIngress(context.Background(), tunnelID, rules)
	require.NoError(t, err)
	assert.Equal(t, rules, gotBody.Config.Ingress)
}

func TestDeriveStorageCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounts/acc1/tokens", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "halyard-storage", body["name"])
		fmt.Fprint(w, envelopeOK(map[string]string{"id": "tok-id", "value": "tok-value"}))
	}))
	defer srv.Close()

	creds, err := newTestClient(srv).DeriveStorageCredentials(context.Background(), "halyard-storage")
	require.NoError(t, err)

	sum := sha256.Sum256([]byte("tok-value"))
	assert.Equal(t, "tok-id", creds.AccessKeyID)
	assert.Equal(t, hex.EncodeToString(sum[:]), creds.SecretAccessKey)
}

func TestCreateDNSRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/zones/z1/dns_records", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "CNAME", body["type"])
		assert.Equal(t, true, body["proxied"])
		assert.Equal(t, float64(1), body["ttl"])
		fmt.Fprint(w, envelopeOK(map[string]any{"id": "rec1", "type": "CNAME", "name": "app.example.com"}))
	}))
	defer srv.Close()

	rec, err := newTestClient(srv).CreateDNSRecord(context.Background(), "z1", cloud.DNSRecord{
		Type:    "CNAME",
		Name:    "app.example.com",
		Content: "abc.cfargotunnel.com",
		Proxied: true,
		TTL:     1,
	})
	require.NoError(t, err)
	assert.Equal(t, "rec1", rec.ID)
	assert.Equal(t, "z1", rec.ZoneID)
}
