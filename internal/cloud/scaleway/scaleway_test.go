package scaleway

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halyard-dev/halyard/internal/cloud"
)

func newTestClient(srv *httptest.Server) *Client {
	c := New(Config{
		AccessKey: "SCWXXXXXXXXXXXXXXXXX",
		SecretKey: "secret",
		Region:    "fr-par",
		Endpoint:  srv.URL,
	})
	c.now = func() time.Time {
		return time.Date(2015, 8, 30, 12, 36, 0, 0, time.UTC)
	}
	return c
}

func TestListBucketsSignsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		assert.True(t, strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=SCWXXXXXXXXXXXXXXXXX/20150830/fr-par/s3/aws4_request"), auth)
		assert.Equal(t, "20150830T123600Z", r.Header.Get("x-amz-date"))
		assert.NotEmpty(t, r.Header.Get("x-amz-content-sha256"))

		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<ListAllMyBucketsResult>
  <Buckets>
    <Bucket><Name>backups</Name></Bucket>
    <Bucket><Name>media</Name></Bucket>
  </Buckets>
</ListAllMyBucketsResult>`)
	}))
	defer srv.Close()

	buckets, err := newTestClient(srv).ListBuckets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"backups", "media"}, buckets)
}

func TestBucketExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodHead, r.Method)
		if r.URL.Path == "/present" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	exists, err := c.BucketExists(context.Background(), "present")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = c.BucketExists(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateBucket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/backups", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, newTestClient(srv).CreateBucket(context.Background(), "backups"))
}

func TestClassifyAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).ListBuckets(context.Background())
	var cerr *cloud.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, cloud.KindUnauthorized, cerr.Kind)
}

func TestClassifyS3ErrorDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `<?xml version="1.0"?><Error><Code>BucketAlreadyExists</Code><Message>bucket name taken</Message></Error>`)
	}))
	defer srv.Close()

	err := newTestClient(srv).CreateBucket(context.Background(), "backups")
	var cerr *cloud.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, cloud.KindAPIError, cerr.Kind)
	assert.Equal(t, "bucket name taken", cerr.Message)
}
