package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partly/enrichment-engine/internal/config"
	"github.com/partly/enrichment-engine/internal/observability"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(config.StorageConfig{DataDir: t.TempDir(), Tenant: "acme"}, observability.Nop())
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "M1-1120-3", sanitizeName("M1-1120-3"))
	assert.Equal(t, "M1_1120_3", sanitizeName("M1/1120\\3"))
	assert.Equal(t, "a_b", sanitizeName("a b"))
}

func TestProductJSONRoundTrip(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveProductJSON("M1-1120-3", map[string]string{"mcov": "150"}))

	blob, ok := s.LoadDatasheetJSON("M1-1120-3")
	require.True(t, ok)
	assert.Contains(t, string(blob), `"mcov": "150"`)

	_, ok = s.LoadDatasheetJSON("UNKNOWN-1")
	assert.False(t, ok)
}

func TestCachePDFHitsNetworkOnce(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("%PDF-1.7 payload"))
	}))
	defer srv.Close()

	s := newTestStore(t)

	path, err := s.CachePDF(context.Background(), "M1-1120-3", srv.URL+"/m1.pdf")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 payload", string(data))

	again, err := s.CachePDF(context.Background(), "M1-1120-3", srv.URL+"/m1.pdf")
	require.NoError(t, err)
	assert.Equal(t, path, again)
	assert.Equal(t, 1, calls)
}

func TestCachePDFErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := newTestStore(t)
	_, err := s.CachePDF(context.Background(), "M1-1120-3", srv.URL+"/missing.pdf")
	assert.Error(t, err)
}

func TestCacheImageExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	s := newTestStore(t)

	path, err := s.CacheImage(context.Background(), "M1-1120-3", srv.URL+"/hero.PNG?width=800")
	require.NoError(t, err)
	assert.Equal(t, s.ImagePath("M1-1120-3", ".png"), path)

	path, err = s.CacheImage(context.Background(), "M1-1240-3", srv.URL+"/hero")
	require.NoError(t, err)
	assert.Equal(t, s.ImagePath("M1-1240-3", ".jpg"), path, "unknown extension defaults to .jpg")
}

func TestManifestMerge(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpdateManifest("M1-1120-3", ManifestEntry{
		DatasheetURL: "https://surgepure.com/m1.pdf",
		PDFPath:      "data/acme/pdfs/M1-1120-3.pdf",
	}))
	require.NoError(t, s.UpdateManifest("M1-1120-3", ManifestEntry{
		ImageURL:  "https://surgepure.com/m1.jpg",
		ImagePath: "data/acme/images/M1-1120-3.jpg",
	}))

	manifest, err := s.Manifest()
	require.NoError(t, err)
	entry := manifest["M1-1120-3"]
	assert.Equal(t, "https://surgepure.com/m1.pdf", entry.DatasheetURL, "earlier fields survive later updates")
	assert.Equal(t, "https://surgepure.com/m1.jpg", entry.ImageURL)
	assert.Equal(t, "data/acme/pdfs/M1-1120-3.pdf", entry.PDFPath)
}

func TestManifestMissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	manifest, err := s.Manifest()
	require.NoError(t, err)
	assert.Empty(t, manifest)
}
