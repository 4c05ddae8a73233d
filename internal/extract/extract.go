// Package extract turns uploaded files into plain text for chunking.
package extract

import (
	"bytes"
	"fmt"
	"math"
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/cloo-solutions/ragengine/internal/domain"
	"github.com/ledongthuc/pdf"
)

const pdfContentType = "application/pdf"

// SupportedExtensions lists the file extensions the pipeline knows how to read.
var SupportedExtensions = []string{".pdf", ".txt", ".md", ".json"}

// IsPDF reports whether an upload should go through PDF extraction, judged by
// its declared content type or its extension.
func IsPDF(contentType, filename string) bool {
	if contentType == pdfContentType {
		return true
	}
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// IsSupported reports whether filename has one of SupportedExtensions.
func IsSupported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Text returns the plain text of an upload.
func Text(u domain.Upload) (string, error) {
	if IsPDF(u.ContentType, u.Filename) {
		return PDF(u.Data)
	}
	return PlainText(u.Data), nil
}

// PlainText reads data as UTF-8. Invalid sequences become U+FFFD.
func PlainText(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}

// Glyphs further apart than wordGap font sizes, or whose baselines differ by
// more than baselineShift font sizes, belong to different runs.
const (
	wordGap       = 0.2
	baselineShift = 0.5
)

// PDF walks pages and the text runs on them in content order. Runs are
// percent-decoded and followed by a space, each page is followed by a blank
// line, and the result is trimmed.
func PDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = domain.Wrap(domain.ErrExtraction, fmt.Errorf("pdf reader panic: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.Wrap(domain.ErrExtraction, err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		writeRuns(&b, textRuns(page.Content().Text))
		b.WriteString("\n\n")
	}

	return strings.TrimSpace(b.String()), nil
}

// textRuns merges positioned glyphs into runs. Kerning and glyph advances
// stay inside a run; a word-sized gap, a jump back or a baseline change
// starts a new one.
func textRuns(glyphs []pdf.Text) []string {
	var runs []string
	var cur strings.Builder
	var prev pdf.Text
	started := false

	for _, g := range glyphs {
		// TJ arrays end with a synthetic newline glyph.
		if g.S == "" || g.S == "\n" {
			continue
		}
		if started && breaksRun(prev, g) {
			runs = append(runs, cur.String())
			cur.Reset()
		}
		cur.WriteString(g.S)
		prev = g
		started = true
	}
	if cur.Len() > 0 {
		runs = append(runs, cur.String())
	}
	return runs
}

func breaksRun(prev, next pdf.Text) bool {
	size := math.Abs(prev.FontSize)
	if size == 0 {
		size = 1
	}
	if math.Abs(next.Y-prev.Y) > baselineShift*size {
		return true
	}
	gap := next.X - (prev.X + prev.W)
	return gap > wordGap*size || gap < -size
}

func writeRuns(b *strings.Builder, runs []string) {
	for _, run := range runs {
		b.WriteString(decodeRun(run))
		b.WriteByte(' ')
	}
}

// decodeRun percent-decodes a text run, keeping the raw text when it is not
// valid percent-encoded UTF-8.
func decodeRun(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil || !utf8.ValidString(decoded) {
		return s
	}
	return decoded
}
