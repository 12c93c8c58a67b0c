package stage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"yantra/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.UploadConfig {
	return config.UploadConfig{
		MaxFiles:      10,
		MaxTotalBytes: 25 * 1024 * 1024,
		AllowedExtensions: map[string]struct{}{
			".txt": {}, ".json": {}, ".csv": {},
		},
	}
}

func TestStageWritesSanitizedFiles(t *testing.T) {
	dir := t.TempDir()
	s := New(testConfig(), dir)

	jobDir, metas, err := s.Stage("job-1", []UploadedFile{
		{Name: "input.txt", MimeType: "text/plain", Reader: bytes.NewBufferString("hi")},
	})
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "input.txt", metas[0].Filename)
	assert.Equal(t, int64(2), metas[0].Size)

	data, err := os.ReadFile(filepath.Join(jobDir, "input.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))
}

func TestStageRejectsTooManyFiles(t *testing.T) {
	s := New(testConfig(), t.TempDir())
	var files []UploadedFile
	for i := 0; i < 11; i++ {
		files = append(files, UploadedFile{Name: "a.txt", Reader: bytes.NewBufferString("x")})
	}
	_, _, err := s.Stage("job-2", files)
	assert.ErrorIs(t, err, ErrTooManyFiles)
}

func TestStageRejectsEmptyFile(t *testing.T) {
	s := New(testConfig(), t.TempDir())
	_, _, err := s.Stage("job-3", []UploadedFile{{Name: "empty.txt", Reader: bytes.NewBuffer(nil)}})

	var emptyErr *EmptyFileError
	assert.True(t, errors.As(err, &emptyErr))
	assert.Equal(t, "empty.txt", emptyErr.Name)
}

func TestStageRejectsSizeLimitExceeded(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTotalBytes = 4
	s := New(cfg, t.TempDir())

	_, _, err := s.Stage("job-4", []UploadedFile{{Name: "big.txt", Reader: bytes.NewBufferString("too much data")}})
	assert.ErrorIs(t, err, ErrSizeLimitExceeded)
}

func TestStageRejectsDisallowedExtension(t *testing.T) {
	s := New(testConfig(), t.TempDir())
	_, _, err := s.Stage("job-5", []UploadedFile{{Name: "payload.exe", Reader: bytes.NewBufferString("x")}})

	var extErr *ExtensionNotAllowedError
	assert.True(t, errors.As(err, &extErr))
	assert.Equal(t, "payload.exe", extErr.Name)
}

func TestStageRemovesDirectoryOnFailure(t *testing.T) {
	dir := t.TempDir()
	s := New(testConfig(), dir)

	_, _, err := s.Stage("job-6", []UploadedFile{
		{Name: "ok.txt", Reader: bytes.NewBufferString("fine")},
		{Name: "bad.exe", Reader: bytes.NewBufferString("nope")},
	})
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "job-6"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSanitizeFilenameStripsTraversal(t *testing.T) {
	assert.Equal(t, ".._etc_passwd", sanitizeFilename("../etc/passwd"))
}

func TestSanitizeFilenameSubstitutesDotOnlyName(t *testing.T) {
	got := sanitizeFilename(".")
	assert.True(t, strings.HasPrefix(got, "file_"))
}
