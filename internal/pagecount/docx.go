package pagecount

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// The OOXML structs below bind by local element name, so w:p, w:tbl and
// friends match without any namespace plumbing. Numeric attributes are kept
// as strings and parsed per element: one malformed value then degrades that
// single contribution instead of failing the whole unmarshal.

type docDocument struct {
	Body docBody `xml:"body"`
}

type docBody struct {
	Paragraphs []docParagraph `xml:"p"`
	Tables     []docTable     `xml:"tbl"`
	SectPr     *docSectPr     `xml:"sectPr"`
}

type docParagraph struct {
	Props *docParaProps `xml:"pPr"`
	Runs  []docRun      `xml:"r"`
}

type docParaProps struct {
	SectPr *docSectPr `xml:"sectPr"`
}

type docRun struct {
	Texts  []string   `xml:"t"`
	Breaks []docBreak `xml:"br"`
}

type docBreak struct {
	Type string `xml:"type,attr"`
}

type docTable struct {
	Rows []struct{} `xml:"tr"`
}

type docSectPr struct {
	PageSize *docPageSize    `xml:"pgSz"`
	Margins  *docPageMargins `xml:"pgMar"`
}

type docPageSize struct {
	W string `xml:"w,attr"`
	H string `xml:"h,attr"`
}

type docPageMargins struct {
	Top    string `xml:"top,attr"`
	Bottom string `xml:"bottom,attr"`
}

// headerFooterPart is the root of a word/header*.xml or word/footer*.xml
// part. Only the paragraph text matters here.
type headerFooterPart struct {
	Paragraphs []docParagraph `xml:"p"`
}

// estimateDOCX approximates the page count of a Word document by summing
// the vertical space its paragraphs, tables, inline images and page chrome
// would occupy, then dividing by the printable page height. Every explicit
// page break adds one page on top, since a hard break forces a new page no
// matter how little height has accumulated.
func (e *Estimator) estimateDOCX(data []byte) Result {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return unknown(FormatDOCX)
	}
	docXML, err := readZipPart(zr, "word/document.xml")
	if err != nil {
		return unknown(FormatDOCX)
	}
	var doc docDocument
	if err := xml.Unmarshal(docXML, &doc); err != nil {
		return unknown(FormatDOCX)
	}

	layout := e.layout
	lineHeight := layout.lineHeight()

	printable := layout.printableHeight()
	if h, ok := firstSection(&doc.Body).printableHeight(layout); ok {
		printable = h
	}

	var totalHeight float64
	explicitBreaks := 0

	for _, para := range doc.Body.Paragraphs {
		if para.hasPageBreak() {
			explicitBreaks++
		}
		text := strings.TrimSpace(para.text())
		if text == "" {
			totalHeight += lineHeight
			continue
		}
		wrapped := math.Max(1, math.Ceil(float64(utf8.RuneCountInString(text))/float64(layout.CharsPerLine)))
		totalHeight += wrapped * lineHeight
		totalHeight += layout.ParaSpacingLines * lineHeight
	}

	for _, table := range doc.Body.Tables {
		if rows := len(table.Rows); rows > 0 {
			totalHeight += float64(rows) * layout.TableRowLines * lineHeight
			totalHeight += layout.TableSpacingLines * lineHeight
		}
	}

	for _, raw := range inlineImageExtents(docXML) {
		h := layout.extentToPoints(raw)
		if h <= 0 {
			h = layout.ImageFallback
		}
		totalHeight += h + 0.5*lineHeight
	}

	if partHasText(zr, "word/header") {
		totalHeight += layout.HeaderFooterLines * lineHeight
	}
	if partHasText(zr, "word/footer") {
		totalHeight += layout.HeaderFooterLines * lineHeight
	}

	contentPages := math.Ceil(math.Max(1, totalHeight) / printable)
	return known(FormatDOCX, int(contentPages)+explicitBreaks)
}

// text concatenates the paragraph's run text, the visible content an
// author would see.
func (p docParagraph) text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		for _, t := range r.Texts {
			b.WriteString(t)
		}
	}
	return b.String()
}

// hasPageBreak reports whether any run carries a manual page break. A
// paragraph counts once however many breaks it holds.
func (p docParagraph) hasPageBreak() bool {
	for _, r := range p.Runs {
		for _, br := range r.Breaks {
			if br.Type == "page" {
				return true
			}
		}
	}
	return false
}

// firstSection returns the document's leading section properties: the first
// paragraph-level sectPr in body order, else the trailing body-level one.
// May return nil when the body declares no section at all.
func firstSection(body *docBody) *docSectPr {
	for _, p := range body.Paragraphs {
		if p.Props != nil && p.Props.SectPr != nil {
			return p.Props.SectPr
		}
	}
	return body.SectPr
}

// printableHeight resolves the section's declared page height minus the
// vertical margins, in points. ok is false when the geometry is absent or
// unusable and the default page should be used instead. A missing margin
// counts as zero; the result never drops below one point.
func (s *docSectPr) printableHeight(l Layout) (float64, bool) {
	if s == nil || s.PageSize == nil {
		return 0, false
	}
	height := twipsToPoints(s.PageSize.H, l)
	if height <= 0 {
		return 0, false
	}
	var top, bottom float64
	if s.Margins != nil {
		top = twipsToPoints(s.Margins.Top, l)
		bottom = twipsToPoints(s.Margins.Bottom, l)
	}
	return math.Max(1, height-(top+bottom)), true
}

// twipsToPoints parses a twip-valued attribute. Unparsable values come
// back as 0 so the caller treats them as absent.
func twipsToPoints(raw string, l Layout) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v / l.TwipsPerPoint
}

// inlineImageExtents pulls the declared cy extent of every inline drawing
// in the document part. A token walk is used instead of struct tags because
// inline drawings sit at arbitrary depth: body paragraphs, table cells,
// nested tables. Unparsable extents are reported as 0 so the caller can
// substitute the fallback height.
func inlineImageExtents(docXML []byte) []float64 {
	dec := xml.NewDecoder(bytes.NewReader(docXML))
	var extents []float64
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "inline":
				depth++
			case "extent":
				if depth == 0 {
					continue
				}
				var raw float64
				for _, attr := range t.Attr {
					if attr.Name.Local == "cy" {
						if v, err := strconv.ParseFloat(attr.Value, 64); err == nil {
							raw = v
						}
					}
				}
				extents = append(extents, raw)
			}
		case xml.EndElement:
			if t.Name.Local == "inline" && depth > 0 {
				depth--
			}
		}
	}
	return extents
}

// partHasText reports whether any package part under the given name prefix
// contains a paragraph with visible text. Unreadable parts are skipped, not
// fatal: losing one header never voids the whole estimate.
func partHasText(zr *zip.Reader, prefix string) bool {
	for _, zf := range zr.File {
		if !strings.HasPrefix(zf.Name, prefix) || !strings.HasSuffix(zf.Name, ".xml") {
			continue
		}
		data, err := readZipEntry(zf)
		if err != nil {
			continue
		}
		var part headerFooterPart
		if err := xml.Unmarshal(data, &part); err != nil {
			continue
		}
		for _, p := range part.Paragraphs {
			if strings.TrimSpace(p.text()) != "" {
				return true
			}
		}
	}
	return false
}

func readZipPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, zf := range zr.File {
		if zf.Name == name {
			return readZipEntry(zf)
		}
	}
	return nil, fmt.Errorf("part %s not found", name)
}

func readZipEntry(zf *zip.File) ([]byte, error) {
	rc, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
