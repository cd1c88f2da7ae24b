package pagecount

import "math"

// Layout fixes the virtual page every estimate is measured against. All
// distances are PostScript points unless a field says otherwise. One Layout
// value is shared read-only by every strategy so the different formats
// agree on what a printed page looks like.
type Layout struct {
	PageWidth   float64 // pt
	PageHeight  float64 // pt
	Margin      float64 // pt, applied to all four sides
	FontSize    float64 // pt
	LineSpacing float64 // multiple of FontSize

	CharsPerLine   int     // assumed characters on one wrapped line of body text
	CharWidthRatio float64 // plain-text glyph width as a fraction of FontSize

	ParaSpacingLines  float64 // extra lines after a non-empty paragraph
	TableRowLines     float64 // lines occupied by one table row
	TableSpacingLines float64 // extra lines after a table
	HeaderFooterLines float64 // lines per non-empty header or footer
	ImageFallback     float64 // pt, used when an image extent cannot be read

	SheetColWidth  float64 // pt per used spreadsheet column
	SheetRowHeight float64 // pt per used spreadsheet row

	EMUPerPoint   float64 // OOXML English Metric Units in one point
	TwipsPerPoint float64 // twentieths of a point in one point
	EMUThreshold  float64 // raw extents above this are taken to be EMU
}

// DefaultLayout returns the A4 page model: 595x842 pt with a 72 pt margin
// and 12 pt type at 1.2 line spacing.
func DefaultLayout() Layout {
	return Layout{
		PageWidth:         595,
		PageHeight:        842,
		Margin:            72,
		FontSize:          12,
		LineSpacing:       1.2,
		CharsPerLine:      80,
		CharWidthRatio:    0.5,
		ParaSpacingLines:  0.3,
		TableRowLines:     1,
		TableSpacingLines: 0.5,
		HeaderFooterLines: 1,
		ImageFallback:     150,
		SheetColWidth:     64,
		SheetRowHeight:    15,
		EMUPerPoint:       12700,
		TwipsPerPoint:     20,
		EMUThreshold:      10000,
	}
}

func (l Layout) lineHeight() float64 {
	return l.FontSize * l.LineSpacing
}

func (l Layout) printableWidth() float64 {
	return l.PageWidth - 2*l.Margin
}

func (l Layout) printableHeight() float64 {
	return l.PageHeight - 2*l.Margin
}

// extentToPoints converts a raw drawing extent to points. Declared extents
// are EMU in practice, but tiny values are passed through as points so a
// bad unit guess errs toward a larger, safer contribution.
func (l Layout) extentToPoints(v float64) float64 {
	if v > l.EMUThreshold {
		return v / l.EMUPerPoint
	}
	return v
}

// ceilAtLeast1 rounds up and floors the result at one.
func ceilAtLeast1(v float64) int {
	n := int(math.Ceil(v))
	if n < 1 {
		return 1
	}
	return n
}
