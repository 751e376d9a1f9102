package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	hvconfig "homeval/config"
	"homeval/logging"
)

// Artifacts writes failure diagnostics to a local directory and, when a bucket
// is configured, mirrors them to S3.
type Artifacts struct {
	dir string
	s3  *S3Uploader
}

func NewArtifacts(ctx context.Context, cfg hvconfig.ArtifactConfig, httpClient *http.Client) (*Artifacts, error) {
	a := &Artifacts{dir: cfg.Dir}
	if cfg.S3.Enabled() {
		up, err := NewS3Uploader(ctx, cfg.S3, httpClient)
		if err != nil {
			return nil, err
		}
		a.s3 = up
	}
	return a, nil
}

// Save stores data under key and returns the S3 URL when uploaded, otherwise
// the local path. A failed upload falls back to the local copy.
func (a *Artifacts) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	local := filepath.Join(a.dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(local), 0755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	if err := os.WriteFile(local, data, 0644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}

	if a.s3 == nil {
		return local, nil
	}
	if err := a.s3.Upload(ctx, clean, bytes.NewReader(data), contentType); err != nil {
		logging.Warnf("artifacts: upload %s: %v (kept %s)", clean, err, local)
		return local, nil
	}
	return a.s3.URL(clean), nil
}

func cleanKey(key string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}
	return clean, nil
}
