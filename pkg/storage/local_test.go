package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageUpload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, "http://localhost:8080/files/")
	require.NoError(t, err)

	resp, err := store.Upload(context.Background(), &UploadRequest{
		Key:         "invoices/p1/deposit.pdf",
		Reader:      strings.NewReader("%PDF-1.3"),
		ContentType: "application/pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(8), resp.Size)
	assert.Equal(t, "http://localhost:8080/files/invoices/p1/deposit.pdf", resp.URL)

	data, err := os.ReadFile(filepath.Join(dir, "invoices", "p1", "deposit.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(data))

	url, err := store.GetURL(context.Background(), "invoices/p1/deposit.pdf", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, resp.URL, url)
}

func TestLocalStorageKeepsKeysInsideBase(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, "http://localhost/files")
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), &UploadRequest{
		Key:    "../../escape.txt",
		Reader: strings.NewReader("x"),
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "escape.txt"))
	assert.NoError(t, err)

	_, err = store.GetURL(context.Background(), "/", time.Minute)
	assert.Error(t, err)
}
