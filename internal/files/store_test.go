package files

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/exoplorer/internal/config"
)

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	pdfHeader = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")
)

func newTestStore(t *testing.T, maxSize int64) *Store {
	t.Helper()
	s, err := New(config.UploadConfig{
		Dir:               filepath.Join(t.TempDir(), "uploads"),
		MaxFileSize:       maxSize,
		AllowedExtensions: []string{"jpeg", "jpg", "png", "gif", "pdf", "txt", "doc", "docx"},
	})
	require.NoError(t, err)
	return s
}

func dirEntries(t *testing.T, s *Store) []string {
	t.Helper()
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestSave(t *testing.T) {
	s := newTestStore(t, 1<<20)
	ctx := context.Background()

	tests := []struct {
		name     string
		original string
		content  []byte
	}{
		{"png image", "planet.png", pngHeader},
		{"pdf document", "paper.PDF", pdfHeader},
		{"plain text", "notes.txt", []byte("Kepler-22b orbits a G-type star.\n")},
		{"csv saved as txt", "koi.txt", []byte("a,b\n1,2\n")},
		{"client path stripped", `C:\Users\me\Desktop\star.png`, pngHeader},
	}

	nameRe := regexp.MustCompile(`^\d{13}-\d{1,10}-`)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Save(ctx, tt.original, bytes.NewReader(tt.content))
			require.NoError(t, err)

			assert.Regexp(t, nameRe, got.Filename)
			assert.True(t, strings.HasSuffix(got.Filename, "-"+got.OriginalName))
			assert.NotContains(t, got.OriginalName, `\`)
			assert.Equal(t, int64(len(tt.content)), got.Size)
			assert.Equal(t, URLPrefix+got.Filename, got.Path)

			stored, err := os.ReadFile(filepath.Join(s.Dir(), got.Filename))
			require.NoError(t, err)
			assert.Equal(t, tt.content, stored)
		})
	}
}

func TestSave_Rejections(t *testing.T) {
	s := newTestStore(t, 64)
	ctx := context.Background()

	tests := []struct {
		name     string
		original string
		content  []byte
		wantErr  error
	}{
		{"extension not allowed", "tool.exe", []byte("MZ\x90\x00"), ErrFileType},
		{"no extension", "README", []byte("hello"), ErrFileType},
		{"content disagrees with extension", "fake.png", []byte("just some text"), ErrFileType},
		{"pdf posing as image", "scan.jpg", pdfHeader, ErrFileType},
		{"too large", "big.txt", bytes.Repeat([]byte("x"), 65), ErrFileTooLarge},
		{"hidden name", ".htaccess", []byte("x"), ErrInvalidName},
		{"empty name", "", []byte("x"), ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Save(ctx, tt.original, bytes.NewReader(tt.content))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Empty(t, dirEntries(t, s), "rejected uploads must leave nothing behind")
}

func TestSave_ExactlyAtLimit(t *testing.T) {
	s := newTestStore(t, 10)
	_, err := s.Save(context.Background(), "ten.txt", strings.NewReader("0123456789"))
	assert.NoError(t, err)
}

func TestList(t *testing.T) {
	s := newTestStore(t, 1<<20)
	ctx := context.Background()

	empty, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	base := time.Date(2025, 10, 4, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	older, err := s.Save(ctx, "old.txt", strings.NewReader("old"))
	require.NoError(t, err)
	newer, err := s.Save(ctx, "new.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)

	require.NoError(t, os.Chtimes(filepath.Join(s.Dir(), older.Filename), base, base))
	later := base.Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(s.Dir(), newer.Filename), later, later))

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, newer.Filename, got[0].Name)
	assert.True(t, got[0].IsImage)
	assert.Equal(t, URLPrefix+newer.Filename, got[0].Path)
	assert.Equal(t, int64(len(pngHeader)), got[0].Size)

	assert.Equal(t, older.Filename, got[1].Name)
	assert.False(t, got[1].IsImage)
	assert.True(t, got[1].UploadDate.Equal(base))
}

func TestDelete(t *testing.T) {
	s := newTestStore(t, 1<<20)
	ctx := context.Background()

	f, err := s.Save(ctx, "notes.txt", strings.NewReader("hi"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, f.Filename))
	assert.Empty(t, dirEntries(t, s))

	assert.ErrorIs(t, s.Delete(ctx, f.Filename), ErrFileNotFound)

	outside := filepath.Join(filepath.Dir(s.Dir()), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o644))
	for _, name := range []string{"../secret.txt", "..", ".", "", "a/b", `a\b`, ".env"} {
		assert.ErrorIs(t, s.Delete(ctx, name), ErrInvalidName, "name %q", name)
	}
	_, err = os.Stat(outside)
	assert.NoError(t, err, "traversal must not delete files outside the upload dir")
}
