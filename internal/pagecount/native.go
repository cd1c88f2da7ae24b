package pagecount

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/gif"
	"regexp"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Formats that paginate themselves need no height heuristics: the page
// count is read straight out of the file's own structure.

func (e *Estimator) estimatePDF(data []byte) Result {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	count, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return unknown(FormatPDF)
	}
	return known(FormatPDF, count)
}

var slidePartPattern = regexp.MustCompile(`^ppt/slides/slide[0-9]+\.xml$`)

func (e *Estimator) estimatePPTX(data []byte) Result {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return unknown(FormatPPTX)
	}
	hasPresentation := false
	slides := 0
	for _, zf := range zr.File {
		switch {
		case zf.Name == "ppt/presentation.xml":
			hasPresentation = true
		case slidePartPattern.MatchString(zf.Name):
			slides++
		}
	}
	if !hasPresentation {
		return unknown(FormatPPTX)
	}
	return known(FormatPPTX, slides)
}

// estimateImage counts frames: a multi-page TIFF or animated GIF prints one
// page per frame, everything else is a single page. The content is sniffed
// rather than trusting the extension.
func (e *Estimator) estimateImage(data []byte) Result {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return unknown(FormatImage)
	}
	switch format {
	case "gif":
		g, err := gif.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return known(FormatImage, 1)
		}
		return known(FormatImage, len(g.Image))
	case "tiff":
		if n, err := tiffFrameCount(data); err == nil {
			return known(FormatImage, n)
		}
		return known(FormatImage, 1)
	default:
		return known(FormatImage, 1)
	}
}

// tiffFrameCount walks the TIFF's IFD chain and counts directories, which
// is how multi-page TIFFs express their page count. The walk only touches
// directory headers, never pixel data.
func tiffFrameCount(data []byte) (int, error) {
	if len(data) < 8 {
		return 0, fmt.Errorf("tiff header truncated")
	}
	var order binary.ByteOrder
	switch {
	case data[0] == 'I' && data[1] == 'I':
		order = binary.LittleEndian
	case data[0] == 'M' && data[1] == 'M':
		order = binary.BigEndian
	default:
		return 0, fmt.Errorf("bad tiff byte order mark")
	}
	if order.Uint16(data[2:4]) != 42 {
		return 0, fmt.Errorf("bad tiff magic")
	}

	// The chain cap guards against cyclic offsets in hostile files.
	const maxDirectories = 10000
	offset := int64(order.Uint32(data[4:8]))
	count := 0
	for offset != 0 {
		if offset < 8 || offset+2 > int64(len(data)) {
			return 0, fmt.Errorf("tiff directory offset out of range")
		}
		entries := int64(order.Uint16(data[offset : offset+2]))
		next := offset + 2 + entries*12
		if next+4 > int64(len(data)) {
			return 0, fmt.Errorf("tiff directory truncated")
		}
		count++
		if count > maxDirectories {
			return 0, fmt.Errorf("tiff directory chain too long")
		}
		offset = int64(order.Uint32(data[next : next+4]))
	}
	if count == 0 {
		return 0, fmt.Errorf("tiff has no directories")
	}
	return count, nil
}
