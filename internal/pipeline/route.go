package pipeline

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrUnsupportedDocument is returned for uploads that are neither a PDF
// nor an image.
var ErrUnsupportedDocument = errors.New("unsupported document type")

// DocumentKind is how a statement document is sent to the extractor.
type DocumentKind string

const (
	KindPDF         DocumentKind = "pdf"
	KindImage       DocumentKind = "image"
	KindUnsupported DocumentKind = "unsupported"
)

var imageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// Route classifies an upload by MIME type first and file extension second.
func Route(filename, mimeType string) DocumentKind {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	ext := strings.ToLower(filepath.Ext(filename))

	switch {
	case mimeType == "application/pdf" || ext == ".pdf":
		return KindPDF
	case strings.HasPrefix(mimeType, "image/"):
		return KindImage
	}
	if _, ok := imageExtensions[ext]; ok {
		return KindImage
	}
	return KindUnsupported
}

// ContentType returns the MIME type to send to the extractor, filling in
// one from the extension when the upload did not declare a usable type.
func ContentType(filename, mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	switch Route(filename, mimeType) {
	case KindPDF:
		return "application/pdf"
	case KindImage:
		if strings.HasPrefix(mimeType, "image/") {
			return mimeType
		}
		return imageExtensions[strings.ToLower(filepath.Ext(filename))]
	default:
		return mimeType
	}
}
