package assets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cafe-reservation/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(config.AssetsConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Folder:  "cafe/payment-proofs",
	})
	return client, server
}

func TestUploadSendsMultipartAndReturnsURL(t *testing.T) {
	var gotPublicID string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/image/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotPublicID = r.FormValue("public_id")

		_ = json.NewEncoder(w).Encode(map[string]string{
			"secure_url": "https://cdn.example/upload/v171234/cafe/payment-proofs/proof-1.jpg",
			"public_id":  gotPublicID,
		})
	}))
	defer server.Close()

	url, err := client.Upload(context.Background(), "proof-1", strings.NewReader("image bytes"))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example/upload/v171234/cafe/payment-proofs/proof-1.jpg", url)
	assert.Equal(t, "cafe/payment-proofs/proof-1", gotPublicID)
}

func TestUploadSurfacesHostErrors(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := client.Upload(context.Background(), "proof-1", strings.NewReader("image bytes"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestDeleteAddressesAssetByPublicID(t *testing.T) {
	var gotPublicID string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/image/destroy", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotPublicID = r.FormValue("public_id")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := client.Delete(context.Background(), "https://cdn.example/upload/v171234/cafe/payment-proofs/proof-1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "cafe/payment-proofs/proof-1", gotPublicID)
}

func TestDeleteRejectsUnparseableURL(t *testing.T) {
	client := NewClient(config.AssetsConfig{BaseURL: "http://unused"})
	err := client.Delete(context.Background(), "https://cdn.example/no-upload-segment.jpg")
	assert.Error(t, err)
}

func TestExtractPublicID(t *testing.T) {
	cases := map[string]string{
		"https://cdn.example/upload/v1712/cafe/payment-proofs/proof-1.jpg": "cafe/payment-proofs/proof-1",
		"https://cdn.example/image/upload/folder/name.png":                 "folder/name",
		"https://cdn.example/upload/name.webp":                             "name",
		"https://cdn.example/something-else/name.jpg":                      "",
	}
	for input, want := range cases {
		assert.Equal(t, want, ExtractPublicID(input), "input %s", input)
	}
}
