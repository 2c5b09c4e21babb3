// Package files stores the documents and images uploaded through the
// gallery pages. Files live flat in one directory and are served as-is
// under /uploads/.
package files

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/JonMunkholm/exoplorer/internal/config"
	"github.com/JonMunkholm/exoplorer/internal/logging"
)

var (
	ErrFileTooLarge = errors.New("file too large")
	ErrFileType     = errors.New("file type not allowed")
	ErrInvalidName  = errors.New("invalid file name")
	ErrFileNotFound = errors.New("file not found")
)

// URLPrefix is where stored files are served.
const URLPrefix = "/uploads/"

// sniffLen is how many leading bytes mimetype inspects.
const sniffLen = 3072

// extensionTypes lists the content types accepted for each extension.
// A detected type matches when it or one of its parents is listed.
var extensionTypes = map[string][]string{
	"jpg":  {"image/jpeg"},
	"jpeg": {"image/jpeg"},
	"png":  {"image/png"},
	"gif":  {"image/gif"},
	"webp": {"image/webp"},
	"pdf":  {"application/pdf"},
	"txt":  {"text/plain"},
	"doc":  {"application/msword", "application/x-ole-storage"},
	"docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
}

var imageExtensions = []string{"jpg", "jpeg", "png", "gif", "webp"}

// StoredFile describes a file that Save just wrote.
type StoredFile struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalname"`
	Size         int64  `json:"size"`
	Path         string `json:"path"`
	ContentType  string `json:"contentType"`
}

// FileInfo is one gallery entry.
type FileInfo struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	IsImage    bool      `json:"isImage"`
	UploadDate time.Time `json:"uploadDate"`
}

// Store writes uploads into a single directory.
type Store struct {
	dir     string
	maxSize int64
	allowed map[string]bool
	now     func() time.Time
}

// New prepares the upload directory described by cfg.
func New(cfg config.UploadConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	allowed := make(map[string]bool, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")] = true
	}
	return &Store{
		dir:     cfg.Dir,
		maxSize: cfg.MaxFileSize,
		allowed: allowed,
		now:     time.Now,
	}, nil
}

// Dir returns the directory files are written to.
func (s *Store) Dir() string { return s.dir }

// Save validates and writes r under a unique name derived from
// originalName. The extension must be allowed and the sniffed content
// type must agree with it. Nothing is left on disk when Save fails.
func (s *Store) Save(ctx context.Context, originalName string, r io.Reader) (StoredFile, error) {
	base, err := cleanBaseName(originalName)
	if err != nil {
		return StoredFile{}, err
	}
	ext := extensionOf(base)
	if !s.allowed[ext] {
		return StoredFile{}, fmt.Errorf("%w: %q", ErrFileType, base)
	}

	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return StoredFile{}, fmt.Errorf("read upload: %w", err)
	}
	mtype := mimetype.Detect(head)
	if !matchesExtension(mtype, ext) {
		return StoredFile{}, fmt.Errorf("%w: %s content in .%s file", ErrFileType, mtype.String(), ext)
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return StoredFile{}, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(br, s.maxSize+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return StoredFile{}, fmt.Errorf("write upload: %w", err)
	}
	if s.maxSize > 0 && n > s.maxSize {
		return StoredFile{}, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.maxSize)
	}
	if err := ctx.Err(); err != nil {
		return StoredFile{}, err
	}

	name := fmt.Sprintf("%d-%d-%s", s.now().UnixMilli(), rand.Int64N(1_000_000_001), base)
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return StoredFile{}, fmt.Errorf("store upload: %w", err)
	}

	logging.FromContext(ctx).Info("file stored",
		"name", name, "size", n, "content_type", mtype.String())

	return StoredFile{
		Filename:     name,
		OriginalName: base,
		Size:         n,
		Path:         URLPrefix + name,
		ContentType:  mtype.String(),
	}, nil
}

// List returns every stored file, newest first.
func (s *Store) List(ctx context.Context) ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read upload dir: %w", err)
	}

	out := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		out = append(out, FileInfo{
			Name:       e.Name(),
			Path:       URLPrefix + e.Name(),
			Size:       info.Size(),
			IsImage:    slices.Contains(imageExtensions, extensionOf(e.Name())),
			UploadDate: info.ModTime().UTC(),
		})
	}

	slices.SortStableFunc(out, func(a, b FileInfo) int {
		if c := b.UploadDate.Compare(a.UploadDate); c != 0 {
			return c
		}
		return strings.Compare(b.Name, a.Name)
	})
	return out, ctx.Err()
}

// Delete removes one stored file. name must be a bare file name.
func (s *Store) Delete(ctx context.Context, name string) error {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) ||
		name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}

	logging.FromContext(ctx).Info("file deleted", "name", name)
	return nil
}

// cleanBaseName strips any client-side directory from an upload name.
func cleanBaseName(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	base := filepath.Base(name)
	if base == "" || base == "." || base == ".." || base == "/" || strings.HasPrefix(base, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return base, nil
}

func extensionOf(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

func matchesExtension(m *mimetype.MIME, ext string) bool {
	accepted := extensionTypes[ext]
	for ; m != nil; m = m.Parent() {
		for _, t := range accepted {
			if m.Is(t) {
				return true
			}
		}
	}
	return false
}
