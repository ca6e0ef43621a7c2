package attachments

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	gifHeader  = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00")
)

func padded(header []byte, size int) []byte {
	buf := make([]byte, size)
	copy(buf, header)
	return buf
}

func TestValidate_AcceptsWhitelist(t *testing.T) {
	v := NewValidator(nil, 0, nil)
	for name, data := range map[string][]byte{
		"a.png": padded(pngHeader, 1024),
		"a.jpg": padded(jpegHeader, 1024),
		"a.gif": padded(gifHeader, 1024),
	} {
		vf, err := v.Validate(File{Name: name, Data: data})
		require.NoError(t, err, name)
		assert.True(t, strings.HasPrefix(vf.MIMEType, "image/"), name)
		assert.NotEmpty(t, vf.Extension, name)
	}
}

func TestUpload_OversizedJPEGNeverReachesStorage(t *testing.T) {
	storage := NewMemoryStorage("https://cdn.example.com")
	v := NewValidator(storage, 0, nil)

	_, err := v.Upload(context.Background(), File{
		Name:        "big.jpg",
		ContentType: "image/jpeg",
		Data:        padded(jpegHeader, 6*1024*1024),
	})

	require.ErrorIs(t, err, ErrFileTooLarge)
	var rej *RejectionError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, ErrFileTooLarge, rej.Reason)
	assert.Equal(t, 0, storage.UploadCount())
}

func TestUpload_ExecutableDeclaredAsPNGRejectedByContent(t *testing.T) {
	storage := NewMemoryStorage("https://cdn.example.com")
	v := NewValidator(storage, 0, nil)

	exe := padded([]byte("MZ\x90\x00\x03\x00\x00\x00\x04\x00\x00\x00\xff\xff"), 1024)
	_, err := v.Upload(context.Background(), File{Name: "photo.png", ContentType: "image/png", Data: exe})

	require.ErrorIs(t, err, ErrUnsupportedType)
	assert.NotErrorIs(t, err, ErrFileTooLarge)
	assert.Equal(t, 0, storage.UploadCount())
}

func TestValidate_EmptyFile(t *testing.T) {
	_, err := NewValidator(nil, 0, nil).Validate(File{Name: "x.png"})
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestValidate_CustomLimit(t *testing.T) {
	v := NewValidator(nil, 100, []string{"image/png"})
	_, err := v.Validate(File{Name: "a.png", Data: padded(pngHeader, 101)})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = v.Validate(File{Name: "a.gif", Data: padded(gifHeader, 50)})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestUpload_StorageFailurePropagates(t *testing.T) {
	storage := NewMemoryStorage("https://cdn.example.com")
	storage.Err = errors.New("bucket unavailable")
	v := NewValidator(storage, 0, nil)

	_, err := v.Upload(context.Background(), File{Name: "a.png", Data: padded(pngHeader, 64)})
	require.ErrorIs(t, err, ErrUploadFailed)
	assert.Contains(t, err.Error(), "bucket unavailable")
	assert.Equal(t, 1, storage.UploadCount())
}

func TestDiskStorage_Upload(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewDiskStorage(dir, "https://media.example.com/u/")
	require.NoError(t, err)
	v := NewValidator(storage, 0, nil)

	data := padded(pngHeader, 256)
	url, err := v.Upload(context.Background(), File{Name: "cover.png", Data: data})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "https://media.example.com/u/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	stored, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "https://media.example.com/u/")))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, stored))
}

func TestDiskStorage_FileURLWithoutBase(t *testing.T) {
	storage, err := NewDiskStorage(t.TempDir(), "")
	require.NoError(t, err)

	url, err := NewValidator(storage, 0, nil).Upload(context.Background(), File{Name: "a.gif", Data: padded(gifHeader, 32)})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "file://"))
}
