package exif

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store は一時アップロードディレクトリを管理します。
// ディレクトリは起動時に作成され、保存されたファイルは ScheduleRemove で
// レスポンス送信後に削除されます。
type Store struct {
	dir    string
	delay  time.Duration
	logger *slog.Logger
}

// NewStore は Store を作成し、アップロードディレクトリを用意します。
func NewStore(dir string, delay time.Duration, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		dir:    dir,
		delay:  delay,
		logger: logger,
	}, nil
}

// Dir はアップロードディレクトリのパスを返します。
func (st *Store) Dir() string {
	return st.dir
}

// Save はアップロードされたファイルを一意な名前で保存し、保存先パスを返します。
// 名前衝突を避けるためUUIDを使用し、元の拡張子のみ引き継ぎます。
func (st *Store) Save(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	path := filepath.Join(st.dir, name)

	dst, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to persist upload: %w", err)
	}
	return path, nil
}

// Remove は保存ファイルを削除します。失敗はログに残すのみで呼び出し元には返しません。
func (st *Store) Remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		st.logger.Warn("failed to remove uploaded file", "path", path, "error", err)
	}
}

// ScheduleRemove は一定の遅延後にファイルを削除します。
// 遅延はレスポンス送信層がまだファイルを読んでいる間に削除してしまう競合を避けるためのものです。
func (st *Store) ScheduleRemove(path string) {
	time.AfterFunc(st.delay, func() {
		st.Remove(path)
	})
}
