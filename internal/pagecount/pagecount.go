// Package pagecount estimates how many printed A4 pages a document would
// occupy. The estimates are heuristic: real pagination depends on fonts and
// styles that a fast estimate cannot afford to model, so the numbers here
// feed display and tracking metadata, never layout decisions.
package pagecount

import (
	"log/slog"
	"path/filepath"
	"strings"
)

// Format identifies the estimation strategy a file is routed to.
type Format int

const (
	FormatUnknown Format = iota
	FormatPDF
	FormatDOCX
	FormatXLSX
	FormatPPTX
	FormatText
	FormatImage
)

func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatDOCX:
		return "docx"
	case FormatXLSX:
		return "xlsx"
	case FormatPPTX:
		return "pptx"
	case FormatText:
		return "text"
	case FormatImage:
		return "image"
	default:
		return "unknown"
	}
}

// DetectFormat maps a filename's final extension to a Format. Matching is
// case-insensitive; anything outside the recognized set is FormatUnknown.
func DetectFormat(filename string) Format {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "pdf":
		return FormatPDF
	case "docx":
		return FormatDOCX
	case "xlsx", "xlsm":
		return FormatXLSX
	case "pptx":
		return FormatPPTX
	case "txt", "text", "log", "md":
		return FormatText
	case "png", "jpg", "jpeg", "gif", "bmp", "tif", "tiff", "webp":
		return FormatImage
	default:
		return FormatUnknown
	}
}

// Result is the outcome of a page estimate. When Known is false the format
// was unrecognized or the file could not be parsed; Pages is meaningless
// then. When Known is true, Pages is always at least 1.
type Result struct {
	Pages  int
	Known  bool
	Format Format
}

func known(f Format, pages int) Result {
	if pages < 1 {
		pages = 1
	}
	return Result{Pages: pages, Known: true, Format: f}
}

func unknown(f Format) Result {
	return Result{Format: f}
}

// Estimator approximates printed page counts for uploaded documents. It
// holds only immutable layout constants, so a single instance is safe for
// concurrent use across independent inputs.
type Estimator struct {
	layout Layout
}

// New returns an Estimator using the default A4 layout.
func New() *Estimator {
	return &Estimator{layout: DefaultLayout()}
}

// NewWithLayout returns an Estimator measuring against a custom page model.
func NewWithLayout(l Layout) *Estimator {
	return &Estimator{layout: l}
}

// Estimate routes the file to the strategy for its extension and returns
// the page estimate. Failures of any kind, from an unrecognized extension
// to a corrupt byte buffer, come back as an unknown Result; this method
// never returns an error and never panics, because a page count is
// best-effort metadata that must not block the surrounding workflow.
func (e *Estimator) Estimate(data []byte, filename string) (res Result) {
	format := DetectFormat(filename)
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("Page estimation panicked, treating result as unknown.", "file", filename, "panic", r)
			res = unknown(format)
		}
	}()

	switch format {
	case FormatPDF:
		return e.estimatePDF(data)
	case FormatDOCX:
		return e.estimateDOCX(data)
	case FormatXLSX:
		return e.estimateXLSX(data)
	case FormatPPTX:
		return e.estimatePPTX(data)
	case FormatText:
		return e.estimateText(data)
	case FormatImage:
		return e.estimateImage(data)
	default:
		return unknown(FormatUnknown)
	}
}
