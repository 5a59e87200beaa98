package services

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>` + body.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte(docXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractPlainText(t *testing.T) {
	e := NewTextExtractor()

	text, err := e.Extract("notes.txt", []byte("line one\r\nline two\n\n\n\nline three   with    gaps"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(text, "\r") {
		t.Error("carriage returns should be normalized")
	}
	if strings.Contains(text, "\n\n\n") {
		t.Error("newline runs should be collapsed")
	}
	if strings.Contains(text, "    ") {
		t.Error("whitespace runs should be collapsed")
	}
}

func TestExtractDocx(t *testing.T) {
	e := NewTextExtractor()
	content := buildDocx(t, "First paragraph.", "Second paragraph.")

	text, err := e.Extract("lecture.docx", content)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "First paragraph.") || !strings.Contains(text, "Second paragraph.") {
		t.Errorf("extracted text missing paragraphs: %q", text)
	}
}

func TestExtractDocxMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, _ := zw.Create("word/styles.xml")
	f.Write([]byte("<styles/>"))
	zw.Close()

	e := NewTextExtractor()
	if _, err := e.Extract("broken.docx", buf.Bytes()); err == nil {
		t.Error("docx without document.xml must fail")
	}
}

func TestExtractUnsupportedType(t *testing.T) {
	e := NewTextExtractor()
	if _, err := e.Extract("image.png", []byte{0x89, 0x50}); err == nil {
		t.Error("unsupported extension must fail")
	}
}

func TestExtractInvalidPDF(t *testing.T) {
	e := NewTextExtractor()
	if _, err := e.Extract("fake.pdf", []byte("not a pdf at all")); err == nil {
		t.Error("garbage PDF content must fail")
	}
}
