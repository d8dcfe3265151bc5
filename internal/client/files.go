package client

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fenggwsx/StudyShelf/internal/portal"
)

var errReadFile = errors.New("failed to read file")

type uploadFile struct {
	name     string
	mimeType string
	data     []byte
}

// readUpload loads the file at path, refusing anything over limit bytes
// before reading it.
func readUpload(path string, limit int64) (uploadFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return uploadFile{}, fmt.Errorf("%w: %v", errReadFile, err)
	}
	if info.IsDir() {
		return uploadFile{}, fmt.Errorf("%w: %s is a directory", errReadFile, path)
	}
	if err := portal.CheckUploadSize(info.Size(), limit); err != nil {
		return uploadFile{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return uploadFile{}, fmt.Errorf("%w: %v", errReadFile, err)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	return uploadFile{name: filepath.Base(path), mimeType: mimeType, data: data}, nil
}

// writeDownloadedFile stores data under dir without overwriting existing files.
func writeDownloadedFile(dir, name string, data []byte) (string, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = fmt.Sprintf("download_%d", time.Now().Unix())
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	candidate := base
	for i := 0; i < 100; i++ {
		path := filepath.Join(dir, candidate)
		_, err := os.Stat(path)
		if err == nil {
			ext := filepath.Ext(base)
			stem := strings.TrimSuffix(base, ext)
			candidate = fmt.Sprintf("%s(%d)%s", stem, i+1, ext)
			continue
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return "", err
		}
		return path, nil
	}

	return "", fmt.Errorf("unable to create file for %s", base)
}
