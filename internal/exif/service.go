// Package exif はJPEGアップロードの受付とメタデータ抽出機能を提供します。
package exif

import (
	"context"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/photo-forge/internal/config"
)

const (
	mimeJPEG = "image/jpeg"
	mimeJPG  = "image/jpg"
)

// storedFile は検証を通過して一時保存されたアップロードファイルです。
type storedFile struct {
	path         string
	originalName string
	declaredMime string
	size         int64
}

// Service はアップロード受付からメタデータ抽出・レスポンス組み立てまでを担います。
type Service struct {
	cfg       *config.Config
	store     *Store
	extractor Extractor
	logger    *slog.Logger
	now       func() time.Time
}

// NewService は Service を作成します。
func NewService(cfg *config.Config, store *Store, extractor Extractor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:       cfg,
		store:     store,
		extractor: extractor,
		logger:    logger,
		now:       time.Now,
	}
}

// Inspect は全タグとMakerNotesを抽出し、完全なレポートを返します。
// 保存に成功したファイルは抽出の成否に関わらず遅延削除がスケジュールされます。
func (s *Service) Inspect(ctx context.Context, file *multipart.FileHeader) (*Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	stored, err := s.intake(file)
	if err != nil {
		return nil, err
	}
	defer s.store.ScheduleRemove(stored.path)

	// 2つの抽出は同一ファイルへの読み取り専用アクセスであり、並行実行できます。
	// MakerNotes側は失敗してもエラーにならないため、レポート全体が失敗するのは
	// 全タグ抽出が失敗した場合のみです。
	var full, maker Metadata
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.extractor.ExtractFull(gctx, stored.path)
		if err != nil {
			return err
		}
		full = m
		return nil
	})
	g.Go(func() error {
		maker = s.extractor.ExtractMakerNotes(gctx, stored.path)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return buildFullReport(stored, full, maker, s.now()), nil
}

// InspectReadable は全タグを1回の呼び出しで抽出し、人間可読形式のレポートを返します。
// MakerNotesの抽出は行いません。
func (s *Service) InspectReadable(ctx context.Context, file *multipart.FileHeader) (*ReadableReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	stored, err := s.intake(file)
	if err != nil {
		return nil, err
	}
	defer s.store.ScheduleRemove(stored.path)

	full, err := s.extractor.ExtractFull(ctx, stored.path)
	if err != nil {
		return nil, err
	}

	return buildReadableReport(stored, full, s.now()), nil
}

// intake はアップロードを検証し、通過した場合のみ一時保存します。
// 検証に失敗したアップロードがディスクに書かれることはありません。
func (s *Service) intake(file *multipart.FileHeader) (storedFile, error) {
	if file == nil {
		return storedFile{}, newError("NO_FILE", "No file uploaded", nil)
	}
	if err := s.validateUpload(file); err != nil {
		return storedFile{}, err
	}

	path, err := s.store.Save(file)
	if err != nil {
		return storedFile{}, err
	}

	stored := storedFile{
		path:         path,
		originalName: file.Filename,
		declaredMime: file.Header.Get("Content-Type"),
		size:         file.Size,
	}
	s.logDetectedType(stored)
	return stored, nil
}

// validateUpload は宣言されたMIMEタイプの許可リストとサイズ上限を検査します。
// 検査対象はクライアントが宣言したタイプのみで、内容による拒否は行いません。
func (s *Service) validateUpload(file *multipart.FileHeader) error {
	switch file.Header.Get("Content-Type") {
	case mimeJPEG, mimeJPG:
	default:
		return newError("UNSUPPORTED_MEDIA_TYPE", "Only JPEG files are allowed!", nil)
	}

	if file.Size > s.cfg.MaxFileSize {
		return newError("PAYLOAD_TOO_LARGE", "File too large! Maximum size is 50MB.", nil)
	}

	return nil
}

// logDetectedType は保存済みファイルの実際の内容タイプを判定し、
// 宣言タイプと食い違う場合にログへ残します。受付可否には影響しません。
func (s *Service) logDetectedType(stored storedFile) {
	mtype, err := mimetype.DetectFile(stored.path)
	if err != nil {
		s.logger.Warn("failed to detect content type",
			"file", stored.originalName, "error", err)
		return
	}
	if !mtype.Is(stored.declaredMime) {
		s.logger.Warn("declared content type differs from detected",
			"file", stored.originalName,
			"declared", stored.declaredMime,
			"detected", mtype.String())
	}
}
