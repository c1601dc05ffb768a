package exif

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Metadata は抽出されたタグ名（グループ修飾付き、例: "EXIF:Make"）と値のマッピングです。
type Metadata map[string]any

// Extractor は外部メタデータ抽出ツールを抽象化します。
type Extractor interface {
	// ExtractFull は全タグを抽出します。ツールの失敗はエラーとして呼び出し元に伝播します。
	ExtractFull(ctx context.Context, path string) (Metadata, error)
	// ExtractMakerNotes はMakerNotesタグのみを抽出します。
	// MakerNotesが存在しない・読めない・ツールが失敗した場合は nil を返します。
	// MakerNotesは任意の付加情報であり、この呼び出しがエラーを返すことはありません。
	ExtractMakerNotes(ctx context.Context, path string) Metadata
	// Close は抽出ツールが保持するリソースを解放します。アプリケーション終了時に呼び出します。
	Close() error
}

// ExifTool は exiftool バイナリを呼び出す Extractor の実装です。
// 呼び出しごとにプロセスを起動するため、Close で解放すべき状態は持ちません。
type ExifTool struct {
	binPath string
}

// NewExifTool は ExifTool を作成します。binPath が空の場合はPATH上の exiftool を使用します。
func NewExifTool(binPath string) *ExifTool {
	if binPath == "" {
		binPath = "exiftool"
	}
	return &ExifTool{binPath: binPath}
}

// ExtractFull は全タグをグループ修飾名・構造展開付きで抽出します。
func (e *ExifTool) ExtractFull(ctx context.Context, path string) (Metadata, error) {
	out, err := e.run(ctx, fullArgs(path))
	if err != nil {
		return nil, err
	}
	meta, err := parseOutput(out)
	if err != nil {
		return nil, newError("EXTRACTION_FAILED", "Error processing image", err)
	}
	return meta, nil
}

// ExtractMakerNotes はMakerNotesグループのタグのみを抽出します。
func (e *ExifTool) ExtractMakerNotes(ctx context.Context, path string) Metadata {
	out, err := e.run(ctx, makerNotesArgs(path))
	if err != nil {
		return nil
	}
	meta, err := parseOutput(out)
	if err != nil {
		return nil
	}
	if !hasTagFields(meta) {
		return nil
	}
	return meta
}

// Close は Extractor インターフェースを満たします。
func (e *ExifTool) Close() error {
	return nil
}

func (e *ExifTool) run(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, e.binPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, newError("EXTRACTION_FAILED", "Error processing image", errors.New(detail))
	}
	return stdout.Bytes(), nil
}

// fullArgs は全タグ抽出用の引数を組み立てます。
// 重複タグも含めた全タグを、タグ名形式・グループ修飾・構造展開で取得します。
func fullArgs(path string) []string {
	return []string{
		"-json",
		"-a",
		"-s",
		"-G1",
		"-struct",
		"-charset", "filename=utf8",
		"-api", "largefilesupport=1",
		path,
	}
}

// makerNotesArgs はMakerNotes限定抽出用の引数を組み立てます。
func makerNotesArgs(path string) []string {
	return []string{
		"-json",
		"-s",
		"-G1",
		"-charset", "filename=utf8",
		"-MakerNotes:all",
		path,
	}
}

func parseOutput(out []byte) (Metadata, error) {
	var records []Metadata
	if err := json.Unmarshal(out, &records); err != nil {
		return nil, fmt.Errorf("failed to parse exiftool output: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("exiftool returned no records")
	}
	return records[0], nil
}

// hasTagFields は SourceFile 以外のタグが1つでも含まれるかを返します。
// exiftool は該当タグが無くても SourceFile だけのレコードを返すため、
// これが false の場合はMakerNotes不在として扱います。
func hasTagFields(meta Metadata) bool {
	for key := range meta {
		if key != "SourceFile" {
			return true
		}
	}
	return false
}
