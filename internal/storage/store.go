// Package storage keeps the tenant-scoped local cache: downloaded PDFs and
// images, extracted product JSON, and a manifest mapping MPNs to their
// cached assets.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/partly/enrichment-engine/internal/config"
	"github.com/partly/enrichment-engine/internal/domain"
	"github.com/partly/enrichment-engine/internal/observability"
)

// ManifestEntry records the cached assets for one MPN.
type ManifestEntry struct {
	DatasheetURL string `json:"datasheetUrl,omitempty"`
	ImageURL     string `json:"imageUrl,omitempty"`
	PDFPath      string `json:"pdfPath,omitempty"`
	ImagePath    string `json:"imagePath,omitempty"`
}

// Store is the filesystem cache for one tenant.
type Store struct {
	dataDir    string
	tenant     string
	httpClient *http.Client
	log        *observability.Logger

	mu sync.Mutex // serializes manifest read-modify-write
}

// NewStore creates a store rooted at <dataDir>/<tenant>.
func NewStore(cfg config.StorageConfig, log *observability.Logger) *Store {
	return &Store{
		dataDir:    cfg.DataDir,
		tenant:     cfg.Tenant,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        log.WithStage("storage").WithTenant(cfg.Tenant),
	}
}

func (s *Store) tenantDir() string {
	return filepath.Join(s.dataDir, s.tenant)
}

// PDFPath is where the cached datasheet PDF for an MPN lives.
func (s *Store) PDFPath(mpn string) string {
	return filepath.Join(s.tenantDir(), "pdfs", sanitizeName(mpn)+".pdf")
}

// ImagePath is where the cached product image for an MPN lives.
func (s *Store) ImagePath(mpn, ext string) string {
	return filepath.Join(s.tenantDir(), "images", sanitizeName(mpn)+ext)
}

// ProductJSONPath is where extracted product JSON for an MPN lives.
func (s *Store) ProductJSONPath(mpn string) string {
	return filepath.Join(s.tenantDir(), "products", sanitizeName(mpn)+".json")
}

func (s *Store) manifestPath() string {
	return filepath.Join(s.tenantDir(), "manifest.json")
}

// SaveProductJSON writes a product record under products/.
func (s *Store) SaveProductJSON(mpn string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return domain.IOError("marshal product json", err)
	}
	return s.writeFile(s.ProductJSONPath(mpn), data)
}

// LoadDatasheetJSON reads cached product JSON for an MPN. The second
// return reports whether the cache held anything.
func (s *Store) LoadDatasheetJSON(mpn string) (json.RawMessage, bool) {
	data, err := os.ReadFile(s.ProductJSONPath(mpn))
	if err != nil {
		return nil, false
	}
	return data, true
}

// SavePDF writes already-downloaded PDF bytes for an MPN.
func (s *Store) SavePDF(mpn string, data []byte) (string, error) {
	path := s.PDFPath(mpn)
	if err := s.writeFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// CachePDF downloads a datasheet PDF unless it is already cached.
func (s *Store) CachePDF(ctx context.Context, mpn, pdfURL string) (string, error) {
	path := s.PDFPath(mpn)
	if fileExists(path) {
		return path, nil
	}
	data, err := s.fetch(ctx, pdfURL)
	if err != nil {
		return "", err
	}
	if err := s.writeFile(path, data); err != nil {
		return "", err
	}
	s.log.Debug().Str("mpn", mpn).Str("url", pdfURL).Msg("pdf cached")
	return path, nil
}

// CacheImage downloads a product image unless it is already cached. The
// extension follows the URL path, defaulting to .jpg.
func (s *Store) CacheImage(ctx context.Context, mpn, imageURL string) (string, error) {
	path := s.ImagePath(mpn, imageExt(imageURL))
	if fileExists(path) {
		return path, nil
	}
	data, err := s.fetch(ctx, imageURL)
	if err != nil {
		return "", err
	}
	if err := s.writeFile(path, data); err != nil {
		return "", err
	}
	s.log.Debug().Str("mpn", mpn).Str("url", imageURL).Msg("image cached")
	return path, nil
}

// UpdateManifest merges an entry for one MPN into the manifest. Empty
// fields in the update leave the stored fields alone.
func (s *Store) UpdateManifest(mpn string, entry ManifestEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	manifest := map[string]ManifestEntry{}
	if data, err := os.ReadFile(s.manifestPath()); err == nil {
		if err := json.Unmarshal(data, &manifest); err != nil {
			return domain.IOError("manifest is corrupt", err)
		}
	}

	merged := manifest[mpn]
	if entry.DatasheetURL != "" {
		merged.DatasheetURL = entry.DatasheetURL
	}
	if entry.ImageURL != "" {
		merged.ImageURL = entry.ImageURL
	}
	if entry.PDFPath != "" {
		merged.PDFPath = entry.PDFPath
	}
	if entry.ImagePath != "" {
		merged.ImagePath = entry.ImagePath
	}
	manifest[mpn] = merged

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return domain.IOError("marshal manifest", err)
	}
	return s.writeFile(s.manifestPath(), data)
}

// Manifest reads the full manifest. A missing file is an empty manifest.
func (s *Store) Manifest() (map[string]ManifestEntry, error) {
	data, err := os.ReadFile(s.manifestPath())
	if os.IsNotExist(err) {
		return map[string]ManifestEntry{}, nil
	}
	if err != nil {
		return nil, domain.IOError("read manifest", err)
	}
	manifest := map[string]ManifestEntry{}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, domain.IOError("manifest is corrupt", err)
	}
	return manifest, nil
}

func (s *Store) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, domain.IOError("build download request", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, domain.IOError("download "+rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.IOError(fmt.Sprintf("download %s: status %d", rawURL, resp.StatusCode), nil)
	}
	return io.ReadAll(resp.Body)
}

func (s *Store) writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return domain.IOError("create cache dir", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return domain.IOError("write "+path, err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// sanitizeName keeps MPNs filesystem-safe.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(name))
}

// imageExt derives a file extension from the image URL path.
func imageExt(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		ext := strings.ToLower(filepath.Ext(u.Path))
		switch ext {
		case ".jpg", ".jpeg", ".png", ".gif", ".webp":
			return ext
		}
	}
	return ".jpg"
}
