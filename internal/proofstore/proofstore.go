package proofstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// LocalStore keeps payment-proof images on the local filesystem and hands
// out URL references under BaseURL. The rest of the system treats it as a
// black-box blob store keyed by URL.
type LocalStore struct {
	Dir      string
	BaseURL  string
	MaxBytes int64
}

func NewLocalStore(dir, baseURL string, maxBytes int64) *LocalStore {
	return &LocalStore{Dir: dir, BaseURL: baseURL, MaxBytes: maxBytes}
}

// Save writes the uploaded file under a sanitized, timestamped name and
// returns the stored file name and its public URL.
func (s *LocalStore) Save(fileName string, r io.Reader) (string, string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	safeBase := unsafeChars.ReplaceAllString(base, "_")
	finalName := fmt.Sprintf("%s_%s%s", safeBase, time.Now().Format("20060102_150405"), ext)
	destPath := filepath.Join(s.Dir, finalName)

	f, err := os.Create(destPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, io.LimitReader(r, s.MaxBytes+1))
	if err != nil {
		os.Remove(destPath)
		return "", "", fmt.Errorf("failed to write file: %w", err)
	}
	if written > s.MaxBytes {
		os.Remove(destPath)
		return "", "", fmt.Errorf("file too large (max %d bytes)", s.MaxBytes)
	}

	return finalName, s.BaseURL + "/" + finalName, nil
}

// Delete removes the blob a URL points at. URLs outside BaseURL are refused.
// A missing file is not an error: the reference is considered cleared either
// way, and the bool reports whether a file was actually removed.
func (s *LocalStore) Delete(fileURL string) (bool, error) {
	if fileURL == "" {
		return false, nil
	}
	if !strings.HasPrefix(fileURL, s.BaseURL+"/") {
		return false, fmt.Errorf("refusing to delete outside upload dir: %s", fileURL)
	}

	name := filepath.Base(strings.TrimPrefix(fileURL, s.BaseURL+"/"))
	path := filepath.Join(s.Dir, name)

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return true, nil
}
