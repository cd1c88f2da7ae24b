package pagecount

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPackage assembles a minimal OOXML package from raw part contents.
func buildPackage(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func wordDocument(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"` +
		` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing">` +
		`<w:body>` + body + `</w:body></w:document>`
}

func textPara(text string) string {
	return `<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

func estimateDOCXBytes(t *testing.T, parts map[string]string) Result {
	t.Helper()
	return New().Estimate(buildPackage(t, parts), "fixture.docx")
}

func TestDOCXEmptyBody(t *testing.T) {
	res := estimateDOCXBytes(t, map[string]string{"word/document.xml": wordDocument("")})
	require.True(t, res.Known)
	assert.Equal(t, FormatDOCX, res.Format)
	assert.Equal(t, 1, res.Pages)
}

func TestDOCXShortParagraph(t *testing.T) {
	res := estimateDOCXBytes(t, map[string]string{
		"word/document.xml": wordDocument(textPara("Hello world")),
	})
	require.True(t, res.Known)
	assert.Equal(t, 1, res.Pages)
}

// An explicit page break adds a page even when almost no height has
// accumulated.
func TestDOCXExplicitPageBreak(t *testing.T) {
	body := textPara("Before the break") +
		`<w:p><w:r><w:br w:type="page"/></w:r></w:p>` +
		textPara("After the break")
	res := estimateDOCXBytes(t, map[string]string{"word/document.xml": wordDocument(body)})
	require.True(t, res.Known)
	assert.Equal(t, 2, res.Pages)
}

// A document holding nothing but one manual break still spans two pages:
// the base content page plus the forced boundary.
func TestDOCXBreakOnlyDocument(t *testing.T) {
	body := `<w:p><w:r><w:br w:type="page"/></w:r></w:p>`
	res := estimateDOCXBytes(t, map[string]string{"word/document.xml": wordDocument(body)})
	require.True(t, res.Known)
	assert.Equal(t, 2, res.Pages)
}

// A soft line break is not a page break and must not add a page.
func TestDOCXLineBreakIsNotPageBreak(t *testing.T) {
	body := `<w:p><w:r><w:t>first</w:t><w:br/><w:t>second</w:t></w:r></w:p>`
	res := estimateDOCXBytes(t, map[string]string{"word/document.xml": wordDocument(body)})
	require.True(t, res.Known)
	assert.Equal(t, 1, res.Pages)
}

// Forty full lines of text overflow one printable page height.
func TestDOCXAccumulatedParagraphHeight(t *testing.T) {
	line := strings.Repeat("x", 80)
	var body strings.Builder
	for i := 0; i < 40; i++ {
		body.WriteString(textPara(line))
	}
	res := estimateDOCXBytes(t, map[string]string{"word/document.xml": wordDocument(body.String())})
	require.True(t, res.Known)
	assert.Equal(t, 2, res.Pages)
}

// Long paragraphs wrap: one 800-rune paragraph occupies ten lines.
func TestDOCXParagraphWrapping(t *testing.T) {
	big := strings.Repeat("y", 800)
	var body strings.Builder
	for i := 0; i < 4; i++ {
		body.WriteString(textPara(big))
	}
	// 4 * (10*14.4 + 4.32) = 593.28 pt, still one page.
	res := estimateDOCXBytes(t, map[string]string{"word/document.xml": wordDocument(body.String())})
	require.True(t, res.Known)
	assert.Equal(t, 1, res.Pages)

	body.WriteString(textPara(big))
	// A fifth pushes past 698 pt.
	res = estimateDOCXBytes(t, map[string]string{"word/document.xml": wordDocument(body.String())})
	require.True(t, res.Known)
	assert.Equal(t, 2, res.Pages)
}

// Empty paragraphs still take a line each. A non-empty header then tips the
// total over one page.
func TestDOCXHeaderAddsHeight(t *testing.T) {
	body := strings.Repeat(`<w:p/>`, 48)
	doc := map[string]string{"word/document.xml": wordDocument(body)}

	res := estimateDOCXBytes(t, doc)
	require.True(t, res.Known)
	assert.Equal(t, 1, res.Pages)

	doc["word/header1.xml"] = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:hdr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		textPara("Confidential") + `</w:hdr>`
	res = estimateDOCXBytes(t, doc)
	require.True(t, res.Known)
	assert.Equal(t, 2, res.Pages)
}

// A header holding only whitespace does not count as page chrome.
func TestDOCXBlankHeaderIgnored(t *testing.T) {
	body := strings.Repeat(`<w:p/>`, 48)
	doc := map[string]string{
		"word/document.xml": wordDocument(body),
		"word/header1.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<w:hdr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
			textPara(" ") + `</w:hdr>`,
	}
	res := estimateDOCXBytes(t, doc)
	require.True(t, res.Known)
	assert.Equal(t, 1, res.Pages)
}

func TestDOCXTableRows(t *testing.T) {
	row := `<w:tr><w:tc><w:p/></w:tc></w:tr>`
	body := `<w:tbl>` + strings.Repeat(row, 50) + `</w:tbl>`
	res := estimateDOCXBytes(t, map[string]string{"word/document.xml": wordDocument(body)})
	require.True(t, res.Known)
	// 50 rows plus table spacing exceed one page of height.
	assert.Equal(t, 2, res.Pages)
}

// Paragraphs inside table cells belong to the table estimate, not the body
// paragraph loop.
func TestDOCXTableCellParagraphsNotDoubleCounted(t *testing.T) {
	row := `<w:tr><w:tc>` + textPara(strings.Repeat("z", 80)) + `</w:tc></w:tr>`
	body := `<w:tbl>` + strings.Repeat(row, 40) + `</w:tbl>`
	res := estimateDOCXBytes(t, map[string]string{"word/document.xml": wordDocument(body)})
	require.True(t, res.Known)
	// 40 rows at one line each stay under a page; counting the cell text
	// as body paragraphs would push this to two.
	assert.Equal(t, 1, res.Pages)
}

func TestDOCXEmptyTableIgnored(t *testing.T) {
	body := `<w:tbl></w:tbl>` + textPara("alone")
	res := estimateDOCXBytes(t, map[string]string{"word/document.xml": wordDocument(body)})
	require.True(t, res.Known)
	assert.Equal(t, 1, res.Pages)
}

// Inline drawing extents are EMU; two 350 pt images overflow a page.
func TestDOCXInlineImages(t *testing.T) {
	img := `<w:p><w:r><w:drawing><wp:inline>` +
		`<wp:extent cx="5734050" cy="4445000"/>` +
		`</wp:inline></w:drawing></w:r></w:p>`
	res := estimateDOCXBytes(t, map[string]string{"word/document.xml": wordDocument(img + img)})
	require.True(t, res.Known)
	assert.Equal(t, 2, res.Pages)
}

// An unreadable extent falls back to a fixed image height instead of
// contributing nothing.
func TestDOCXImageExtentFallback(t *testing.T) {
	img := `<w:p><w:r><w:drawing><wp:inline>` +
		`<wp:extent cx="0" cy="0"/>` +
		`</wp:inline></w:drawing></w:r></w:p>`
	res := estimateDOCXBytes(t, map[string]string{"word/document.xml": wordDocument(strings.Repeat(img, 5))})
	require.True(t, res.Known)
	// Five fallback-height images overflow one page; without the fallback
	// this would be a single page.
	assert.Equal(t, 2, res.Pages)
}

// Section properties override the default page geometry.
func TestDOCXCustomPageSize(t *testing.T) {
	line := strings.Repeat("x", 80)
	var paras strings.Builder
	for i := 0; i < 30; i++ {
		paras.WriteString(textPara(line))
	}
	sect := `<w:sectPr><w:pgSz w:w="8400" w:h="8400"/><w:pgMar w:top="600" w:bottom="600"/></w:sectPr>`

	// 561.6 pt of text fits the default page.
	res := estimateDOCXBytes(t, map[string]string{"word/document.xml": wordDocument(paras.String())})
	require.True(t, res.Known)
	assert.Equal(t, 1, res.Pages)

	// The same text needs two pages of 360 printable points.
	res = estimateDOCXBytes(t, map[string]string{"word/document.xml": wordDocument(paras.String() + sect)})
	require.True(t, res.Known)
	assert.Equal(t, 2, res.Pages)
}

// A paragraph-level section wins over the trailing body-level one.
func TestDOCXFirstSectionWins(t *testing.T) {
	line := strings.Repeat("x", 80)
	var paras strings.Builder
	paras.WriteString(`<w:p><w:pPr><w:sectPr><w:pgSz w:w="8400" w:h="8400"/>` +
		`<w:pgMar w:top="600" w:bottom="600"/></w:sectPr></w:pPr></w:p>`)
	for i := 0; i < 30; i++ {
		paras.WriteString(textPara(line))
	}
	paras.WriteString(`<w:sectPr><w:pgSz w:w="16838" w:h="16838"/></w:sectPr>`)
	res := estimateDOCXBytes(t, map[string]string{"word/document.xml": wordDocument(paras.String())})
	require.True(t, res.Known)
	assert.Equal(t, 2, res.Pages)
}

// A malformed page height falls back to the default geometry instead of
// failing the estimate.
func TestDOCXMalformedPageSize(t *testing.T) {
	line := strings.Repeat("x", 80)
	var paras strings.Builder
	for i := 0; i < 30; i++ {
		paras.WriteString(textPara(line))
	}
	sect := `<w:sectPr><w:pgSz w:w="8400" w:h="huge"/><w:pgMar w:top="600" w:bottom="600"/></w:sectPr>`
	res := estimateDOCXBytes(t, map[string]string{"word/document.xml": wordDocument(paras.String() + sect)})
	require.True(t, res.Known)
	assert.Equal(t, 1, res.Pages)
}

func TestDOCXUnreadable(t *testing.T) {
	t.Run("not a zip", func(t *testing.T) {
		res := New().Estimate([]byte("plain text pretending"), "fake.docx")
		assert.False(t, res.Known)
		assert.Equal(t, FormatDOCX, res.Format)
	})
	t.Run("missing document part", func(t *testing.T) {
		res := estimateDOCXBytes(t, map[string]string{"word/styles.xml": "<styles/>"})
		assert.False(t, res.Known)
	})
	t.Run("invalid xml", func(t *testing.T) {
		res := estimateDOCXBytes(t, map[string]string{"word/document.xml": "<w:document><broken"})
		assert.False(t, res.Known)
	})
}
