// Package extract pulls plain text out of uploaded study notes.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

// MaxPDFPages is the number of leading pages read from a PDF.
const MaxPDFPages = 10

var (
	// ErrUnsupportedType means the upload is neither a PDF nor UTF-8 text.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrTooLarge means the upload exceeds the size limit.
	ErrTooLarge = errors.New("file too large")
	// ErrUnreadable means the upload looked like a PDF but could not be opened.
	ErrUnreadable = errors.New("unreadable document")
)

// Text reads at most limit bytes from r and returns the text it holds.
// PDFs contribute their first MaxPDFPages pages; a page that fails to
// decode contributes nothing.
func Text(r io.Reader, limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return "", ErrTooLarge
	}

	mt := mimetype.Detect(data)
	switch {
	case mt.Is("application/pdf"):
		return pdfText(data)
	case mt.Is("text/plain"):
		if !utf8.Valid(data) {
			return "", ErrUnsupportedType
		}
		return string(data), nil
	}
	slog.Debug("rejected upload", "mime", mt.String())
	return "", ErrUnsupportedType
}

func pdfText(data []byte) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrUnreadable, rec)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	pages := min(r.NumPage(), MaxPDFPages)
	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		sb.WriteString(pageText(r, i))
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String()), nil
}

func pageText(r *pdf.Reader, i int) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("pdf page skipped", "page", i, "panic", rec)
			text = ""
		}
	}()
	p := r.Page(i)
	if p.V.IsNull() {
		return ""
	}
	s, err := p.GetPlainText(nil)
	if err != nil {
		slog.Warn("pdf page skipped", "page", i, "error", err)
		return ""
	}
	return s
}
