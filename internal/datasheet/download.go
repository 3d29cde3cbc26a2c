package datasheet

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/partly/enrichment-engine/internal/domain"
)

// download fetches the PDF with browser-shaped headers. Some OEM CDNs
// reject a PDF-specific Accept header with 403; the retry relaxes it.
func (s *Service) download(ctx context.Context, url string) ([]byte, error) {
	body, status, err := s.doDownload(ctx, url, "application/pdf,*/*;q=0.8")
	if err != nil {
		return nil, domain.IOError("datasheet download failed", err)
	}
	if status == http.StatusForbidden {
		body, status, err = s.doDownload(ctx, url, "*/*")
		if err != nil {
			return nil, domain.IOError("datasheet download retry failed", err)
		}
	}
	if status != http.StatusOK {
		return nil, domain.IOError(fmt.Sprintf("datasheet download returned status %d", status), nil)
	}
	return body, nil
}

func (s *Service) doDownload(ctx context.Context, url, accept string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// writeTemp lands the PDF bytes on disk for go-fitz, which reads from a
// path.
func writeTemp(data []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "datasheet-*.pdf")
	if err != nil {
		return "", nil, domain.IOError("failed to create temp pdf", err)
	}
	path := f.Name()
	cleanup := func() { os.Remove(path) }

	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", nil, domain.IOError("failed to write temp pdf", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, domain.IOError("failed to close temp pdf", err)
	}
	return path, cleanup, nil
}
