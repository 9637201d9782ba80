package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// buildPDF writes an uncompressed PDF with one page per content stream.
func buildPDF(contents ...string) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	kids := make([]string, len(contents))
	for i := range contents {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(contents)))
	for i, c := range contents {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R >>", 4+2*i))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(c), c))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func textPage(s string) string {
	return fmt.Sprintf("BT (%s) Tj ET", s)
}

func TestText_Plain(t *testing.T) {
	notes := "Mitochondria are the powerhouse of the cell.\nThey produce ATP."
	got, err := Text(strings.NewReader(notes), 1024)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != notes {
		t.Errorf("got %q, want %q", got, notes)
	}
}

func TestText_Cyrillic(t *testing.T) {
	notes := "Митохондрии производят АТФ для клетки."
	got, err := Text(strings.NewReader(notes), 1024)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != notes {
		t.Errorf("got %q, want %q", got, notes)
	}
}

func TestText_SizeLimit(t *testing.T) {
	data := strings.Repeat("a", 100)

	if _, err := Text(strings.NewReader(data), 100); err != nil {
		t.Errorf("exactly at the limit should pass: %v", err)
	}
	if _, err := Text(strings.NewReader(data), 99); !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestText_Rejected(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), ErrUnsupportedType},
		{"zip", []byte("PK\x03\x04\x14\x00\x00\x00\x08\x00"), ErrUnsupportedType},
		{"broken pdf", []byte("%PDF-1.4\nthis is not really a pdf"), ErrUnreadable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Text(bytes.NewReader(tt.data), 1024)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestText_PDFReadsLeadingPages(t *testing.T) {
	var pages []string
	for i := 1; i <= MaxPDFPages+2; i++ {
		pages = append(pages, textPage(fmt.Sprintf("Page %d", i)))
	}
	data := buildPDF(pages...)

	got, err := Text(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	var want []string
	for i := 1; i <= MaxPDFPages; i++ {
		want = append(want, fmt.Sprintf("Page %d", i))
	}
	if got != strings.Join(want, "\n") {
		t.Errorf("got %q, want the first %d pages", got, MaxPDFPages)
	}
	if strings.Contains(got, "Page 11") {
		t.Errorf("read past page %d: %q", MaxPDFPages, got)
	}
}

func TestText_PDFBadPageIsSkipped(t *testing.T) {
	// Tf with a missing operand makes the page's text undecodable.
	data := buildPDF(textPage("Mitochondria"), "BT /F1 Tf (lost) Tj ET", textPage("Ribosomes"))

	got, err := Text(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if want := "Mitochondria\n\nRibosomes"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
