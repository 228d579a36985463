package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeObjectPath(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"grade-12/physics/waves.pdf", "grade-12/physics/waves.pdf"},
		{"/notes/grade-12/physics/waves.pdf", "grade-12/physics/waves.pdf"},
		{"notes/waves.pdf", "waves.pdf"},
		{"https://abc.supabase.co/storage/v1/object/public/notes/grade-12/waves.pdf", "grade-12/waves.pdf"},
		{"https://abc.supabase.co/storage/v1/object/sign/notes/grade-12/waves.pdf?token=xyz", "grade-12/waves.pdf"},
		{"https://abc.supabase.co/storage/v1/object/authenticated/notes/a%20b.pdf", "a b.pdf"},
		{"https://cdn.example.com/notes/waves.pdf", "waves.pdf"},
		{"waves.pdf?download=1", "waves.pdf"},
		{"   ", ""},
	}

	for _, tc := range cases {
		assert.Equalf(t, tc.want, NormalizeObjectPath(tc.raw, "notes"), "raw=%q", tc.raw)
	}
}

func TestSignedURL(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody signRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(signResponse{SignedURL: "/object/sign/notes/grade-12/a%20b.pdf?token=t1"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "service-key", "notes", srv.Client())
	signed, err := c.SignedURL(context.Background(), "grade-12/a b.pdf", 300*time.Second)
	require.NoError(t, err)

	assert.Equal(t, "/storage/v1/object/sign/notes/grade-12/a%20b.pdf", gotPath)
	assert.Equal(t, "Bearer service-key", gotAuth)
	assert.Equal(t, 300, gotBody.ExpiresIn)
	assert.Equal(t, srv.URL+"/storage/v1/object/sign/notes/grade-12/a%20b.pdf?token=t1", signed)
}

func TestSignedURLUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "notes", srv.Client())
	_, err := c.SignedURL(context.Background(), "missing.pdf", time.Minute)
	assert.Error(t, err)

	_, err = c.SignedURL(context.Background(), "", time.Minute)
	assert.Error(t, err)
}
