package services

import (
	"fmt"
	"mime"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// blobNameSeparator sits between the UUID prefix and the escaped filename.
const blobNameSeparator = "-"

// NewBlobName builds the storage object name for an uploaded file. The
// original filename is percent-escaped so the object name survives URLs
// and event payloads intact, and a UUID prefix keeps concurrent uploads of
// the same filename from colliding.
func NewBlobName(originalName string) string {
	return uuid.NewString() + blobNameSeparator + url.PathEscape(originalName)
}

// OriginalNameFromBlob recovers the uploaded filename from a blob name by
// stripping the UUID prefix and undoing the percent escaping. Names without
// the expected prefix come back unescaped but otherwise unchanged.
func OriginalNameFromBlob(blobName string) string {
	name := blobName
	if len(name) > 37 && name[36] == '-' {
		if _, err := uuid.Parse(name[:36]); err == nil {
			name = name[37:]
		}
	}
	if decoded, err := url.PathUnescape(name); err == nil {
		return decoded
	}
	return name
}

// DownloadName derives the client-facing filename for a translated output:
// <language>_<original base>_translated<original extension>.
func DownloadName(blobName, targetLanguage string) string {
	original := OriginalNameFromBlob(blobName)
	ext := filepath.Ext(original)
	base := strings.TrimSuffix(original, ext)
	return fmt.Sprintf("%s_%s_translated%s", targetLanguage, base, ext)
}

// Office formats rarely resolve through the platform MIME table, so the
// common document types are pinned here.
var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xlsm": "application/vnd.ms-excel.sheet.macroEnabled.12",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".txt":  "text/plain; charset=utf-8",
	".md":   "text/markdown; charset=utf-8",
}

// ContentTypeFor resolves the content type to store alongside an uploaded
// file, falling back to application/octet-stream when nothing matches.
func ContentTypeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// FileTypeFor is the lowercase extension without its dot, recorded on the
// file's metadata for display.
func FileTypeFor(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}
