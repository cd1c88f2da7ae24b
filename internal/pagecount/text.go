package pagecount

import "unicode/utf8"

// estimateText fits plain text into a fixed character budget per page:
// characters per line from the printable width and an average glyph width,
// lines per page from the printable height and the line height. The byte
// buffer is decoded as UTF-8 with invalid sequences dropped, so binary
// noise shrinks the count instead of failing it.
func (e *Estimator) estimateText(data []byte) Result {
	layout := e.layout

	charWidth := layout.FontSize * layout.CharWidthRatio
	charsPerLine := layout.printableWidth() / charWidth
	linesPerPage := layout.printableHeight() / layout.lineHeight()
	charsPerPage := charsPerLine * linesPerPage

	chars := validRuneCount(data)
	return known(FormatText, ceilAtLeast1(float64(chars)/charsPerPage))
}

// validRuneCount counts decodable UTF-8 runes, skipping invalid bytes the
// way a lossy decode discards them.
func validRuneCount(data []byte) int {
	count := 0
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			data = data[1:]
			continue
		}
		count++
		data = data[size:]
	}
	return count
}
