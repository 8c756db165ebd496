package extract

import (
	"archive/zip"
	"bytes"
	"net/http"
	"path/filepath"
	"strings"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeXLS  = "application/vnd.ms-excel"
	mimeDOC  = "application/msword"
	mimeTXT  = "text/plain"
)

var mimeTypes = map[string]Type{
	mimePDF:  TypePDF,
	mimeDOCX: TypeDOCX,
	mimeXLSX: TypeXLSX,
	mimeXLS:  TypeXLS,
	mimeDOC:  TypeDOC,
	mimeTXT:  TypeTXT,
}

var extTypes = map[string]Type{
	".pdf":  TypePDF,
	".docx": TypeDOCX,
	".doc":  TypeDOC,
	".xlsx": TypeXLSX,
	".xls":  TypeXLS,
	".txt":  TypeTXT,
	".text": TypeTXT,
}

var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Detect resolves the document type from content magic, the declared MIME type
// and the file extension, in that order. A file extension that maps to no
// known type yields TypeUnknown unless the content itself is recognized.
func Detect(declaredMime, fileName string, data []byte) Type {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(fileName)))

	if t := fromMagic(data, ext); t != TypeUnknown {
		return t
	}

	byExt, extKnown := extTypes[ext]
	if ext != "" && !extKnown {
		return TypeUnknown
	}

	clean := strings.ToLower(strings.TrimSpace(strings.Split(declaredMime, ";")[0]))
	if t, ok := mimeTypes[clean]; ok {
		if extKnown && byExt != t {
			return byExt
		}
		return t
	}
	if extKnown {
		return byExt
	}

	if ext == "" && len(data) > 0 && strings.HasPrefix(http.DetectContentType(data), mimeTXT) {
		return TypeTXT
	}
	return TypeUnknown
}

func fromMagic(data []byte, ext string) Type {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return TypePDF
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return fromOOXML(data)
	case bytes.HasPrefix(data, oleMagic):
		if ext == ".doc" {
			return TypeDOC
		}
		if ext == ".xls" {
			return TypeXLS
		}
	}
	return TypeUnknown
}

func fromOOXML(data []byte) Type {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return TypeUnknown
	}
	for _, f := range zr.File {
		switch strings.ReplaceAll(f.Name, "\\", "/") {
		case "word/document.xml":
			return TypeDOCX
		case "xl/workbook.xml":
			return TypeXLSX
		}
	}
	return TypeUnknown
}
