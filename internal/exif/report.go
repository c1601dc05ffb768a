package exif

import (
	"fmt"
	"time"
)

// MakerNotesPlaceholder はMakerNotesが存在しない・読めない場合にレスポンスへ入れる文字列です。
const MakerNotesPlaceholder = "No makernotes found or not readable"

// BasicInfo はアップロードファイルの基本情報です。
type BasicInfo struct {
	Filename  string `json:"filename"`
	Filesize  int64  `json:"filesize"`
	MimeType  string `json:"mimetype"`
	Processed string `json:"processed"`
}

// Report は POST /upload のレスポンスペイロードです。
// MakerNotes はタグマッピングまたは MakerNotesPlaceholder のいずれかになります。
type Report struct {
	BasicInfo  BasicInfo `json:"basicInfo"`
	Metadata   Metadata  `json:"metadata"`
	MakerNotes any       `json:"makernotes"`
}

// ReadableFileInfo は人間可読形式のファイル情報です。
type ReadableFileInfo struct {
	FileName    string `json:"fileName"`
	FileSize    string `json:"fileSize"`
	MimeType    string `json:"mimeType"`
	ProcessedAt string `json:"processedAt"`
}

// ReadableReport は POST /upload-readable のレスポンスペイロードです。
// MakerNotesフィールドは持ちません。
type ReadableReport struct {
	FileInfo ReadableFileInfo `json:"fileInfo"`
	Metadata Metadata         `json:"metadata"`
}

// buildFullReport は基本情報・全タグ・MakerNotesを1つのレスポンスにまとめます。
// 入力のみに依存する純粋関数です。
func buildFullReport(stored storedFile, full, maker Metadata, processed time.Time) *Report {
	var makerField any = MakerNotesPlaceholder
	if maker != nil {
		makerField = maker
	}

	return &Report{
		BasicInfo: BasicInfo{
			Filename:  stored.originalName,
			Filesize:  stored.size,
			MimeType:  stored.declaredMime,
			Processed: processed.UTC().Format(time.RFC3339),
		},
		Metadata:   full,
		MakerNotes: makerField,
	}
}

// buildReadableReport は基本情報を人間可読形式に整形したレスポンスを組み立てます。
func buildReadableReport(stored storedFile, full Metadata, processed time.Time) *ReadableReport {
	return &ReadableReport{
		FileInfo: ReadableFileInfo{
			FileName:    stored.originalName,
			FileSize:    formatMegabytes(stored.size),
			MimeType:    stored.declaredMime,
			ProcessedAt: processed.Format("2006-01-02 15:04:05"),
		},
		Metadata: full,
	}
}

// formatMegabytes はバイト数を小数2桁のMB表記に変換します。
func formatMegabytes(size int64) string {
	return fmt.Sprintf("%.2f MB", float64(size)/(1024*1024))
}
