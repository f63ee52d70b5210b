/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/

package source

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const userAgent = "suriview/1.0"

// Fetcher downloads url sources into a local cache directory and
// extracts the .rules files they contain. Downloads for distinct
// sources run concurrently.
type Fetcher struct {
	cacheDir string
	client   *http.Client
	logger   *slog.Logger
}

type downloadMeta struct {
	URL          string    `json:"url"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

func NewFetcher(cacheDir string, logger *slog.Logger) (*Fetcher, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Fetcher{
		cacheDir: cacheDir,
		client:   &http.Client{Timeout: 5 * time.Minute},
		logger:   logger,
	}, nil
}

// FetchAll ensures every url source has a fresh extraction directory
// in the cache and returns the directory per source name. Sources that
// fail to download fall back to a stale cache when one exists.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) (map[string]string, error) {
	dirs := make(map[string]string, len(sources))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		if src.Type != TypeURL {
			continue
		}
		g.Go(func() error {
			dir, err := f.fetch(ctx, src)
			if err != nil {
				return fmt.Errorf("source %s: %w", src.Name, err)
			}
			mu.Lock()
			dirs[src.Name] = dir
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dirs, nil
}

// fetch returns the extraction directory for one url source,
// downloading and re-extracting when the cached copy is older than
// the source's cache window.
func (f *Fetcher) fetch(ctx context.Context, src Source) (string, error) {
	key := cacheKey(src.URL)
	extractDir := filepath.Join(f.cacheDir, key)
	metaPath := filepath.Join(f.cacheDir, key+".json")

	if fresh(metaPath, src.CacheHours) {
		f.logger.Debug("using cached rules", "source", src.Name, "dir", extractDir)
		return extractDir, nil
	}

	f.logger.Info("downloading rules", "source", src.Name, "url", src.URL)
	archive, err := f.download(ctx, src.URL, key)
	if err != nil {
		if _, statErr := os.Stat(extractDir); statErr == nil {
			f.logger.Warn("download failed, using stale cache",
				"source", src.Name, "error", err)
			return extractDir, nil
		}
		return "", err
	}
	defer os.Remove(archive)

	if err := os.RemoveAll(extractDir); err != nil {
		return "", fmt.Errorf("clear extraction directory: %w", err)
	}
	if err := extract(archive, src.FileType, extractDir); err != nil {
		return "", fmt.Errorf("extract %s: %w", src.URL, err)
	}

	meta := downloadMeta{URL: src.URL, DownloadedAt: time.Now().UTC()}
	data, _ := json.Marshal(meta)
	if err := os.WriteFile(metaPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write download metadata: %w", err)
	}
	return extractDir, nil
}

func (f *Fetcher) download(ctx context.Context, url, key string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp(f.cacheDir, key+"-*.download")
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("download body: %w", err)
	}
	return tmp.Name(), nil
}

func cacheKey(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// fresh reports whether the download metadata exists and is younger
// than the cache window. A zero window means the cache never expires.
func fresh(metaPath string, cacheHours float64) bool {
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return false
	}
	var meta downloadMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return false
	}
	if cacheHours <= 0 {
		return true
	}
	age := time.Since(meta.DownloadedAt)
	return age < time.Duration(cacheHours*float64(time.Hour))
}

func extract(archive, fileType, dest string) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	switch strings.ToLower(fileType) {
	case "tar.gz", "tgz", "":
		return extractTarGz(archive, dest)
	case "zip":
		return extractZip(archive, dest)
	case "rules", "plain":
		return copyFile(archive, filepath.Join(dest, "downloaded.rules"))
	default:
		return fmt.Errorf("unsupported file type %q", fileType)
	}
}

func extractTarGz(archive, dest string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if hdr.Typeflag != tar.TypeReg || !strings.HasSuffix(hdr.Name, ".rules") {
			continue
		}
		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}
		if err := writeEntry(target, tr); err != nil {
			return err
		}
	}
}

func extractZip(archive, dest string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() || !strings.HasSuffix(entry.Name, ".rules") {
			continue
		}
		target, err := safeJoin(dest, entry.Name)
		if err != nil {
			return err
		}
		rc, err := entry.Open()
		if err != nil {
			return err
		}
		err = writeEntry(target, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// safeJoin rejects archive entries that would escape the destination.
func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.Base(name))
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes destination", name)
	}
	return target, nil
}

func writeEntry(target string, r io.Reader) error {
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, r)
	return err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	return writeEntry(dst, in)
}
