package exif

import (
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T, delay time.Duration) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := NewStore(t.TempDir(), delay, logger)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func formFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	req := newUploadRequest(t, "/upload", filename, "image/jpeg", content)
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("failed to parse multipart form: %v", err)
	}
	files := req.MultipartForm.File["image"]
	if len(files) == 0 {
		t.Fatal("no file in form")
	}
	return files[0]
}

func TestStoreSaveUniqueNames(t *testing.T) {
	store := newTestStore(t, time.Second)
	header := formFileHeader(t, "holiday.JPG", []byte("jpegdata"))

	first, err := store.Save(header)
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	second, err := store.Save(header)
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if first == second {
		t.Fatalf("expected unique paths, got %s twice", first)
	}
	if !strings.HasSuffix(first, ".jpg") {
		t.Errorf("expected lowercased extension, got %s", filepath.Base(first))
	}

	data, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("failed to read saved file: %v", err)
	}
	if string(data) != "jpegdata" {
		t.Errorf("unexpected file content: %q", data)
	}
}

func TestStoreScheduleRemove(t *testing.T) {
	store := newTestStore(t, 10*time.Millisecond)
	header := formFileHeader(t, "holiday.jpg", []byte("jpegdata"))

	path, err := store.Save(header)
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	store.ScheduleRemove(path)

	// 遅延の間はファイルがまだ存在しうるため、期限付きで消えるのを待つ
	waitForEmptyDir(t, store.Dir())
}

func TestStoreRemoveMissingFile(t *testing.T) {
	store := newTestStore(t, time.Second)

	// 既に存在しないパスの削除は何も起こさない
	store.Remove(filepath.Join(store.Dir(), "missing.jpg"))
}
