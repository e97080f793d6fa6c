package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/kirillkom/document-qa/internal/core/domain"
	"github.com/kirillkom/document-qa/internal/core/ports"
)

const defaultMaxBytes = 64 << 20

// Fetcher downloads source documents over HTTP. Document fetch is a
// single attempt: an unreachable URL fails the whole run, so retrying
// here would only delay the error response.
type Fetcher struct {
	httpClient *http.Client
	maxBytes   int64
}

func New(timeout time.Duration, maxBytes int64) *Fetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxBytes,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*ports.FetchedDocument, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, domain.WrapError(domain.ErrInvalidInput, "fetch document",
			fmt.Errorf("unsupported document url %q", rawURL))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "fetch document", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIngestion, "fetch document", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, domain.WrapError(domain.ErrIngestion, "fetch document",
			fmt.Errorf("unexpected status %s for %s", resp.Status, rawURL))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, domain.WrapError(domain.ErrIngestion, "read document body", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, domain.WrapError(domain.ErrIngestion, "read document body",
			fmt.Errorf("document exceeds %d bytes", f.maxBytes))
	}
	if len(body) == 0 {
		return nil, domain.WrapError(domain.ErrIngestion, "read document body",
			fmt.Errorf("empty document body for %s", rawURL))
	}

	return &ports.FetchedDocument{
		SourceURL: rawURL,
		MimeType:  resolveMimeType(resp.Header.Get("Content-Type"), parsed.Path),
		Body:      body,
	}, nil
}

// resolveMimeType prefers the URL extension over the Content-Type
// header: hosted documents are commonly served as octet-stream.
func resolveMimeType(contentType, urlPath string) string {
	if ext := strings.ToLower(path.Ext(urlPath)); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
		switch ext {
		case ".pdf":
			return "application/pdf"
		case ".xlsx":
			return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		case ".docx":
			return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
		}
	}
	if contentType != "" {
		if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
			return parsed
		}
	}
	return "application/octet-stream"
}
