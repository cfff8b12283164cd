package blobstore

import (
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// Common MIME content types for file operations.
const (
	// Images.
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
	ContentTypeSVG  = "image/svg+xml"
	ContentTypeBMP  = "image/bmp"
	ContentTypeICO  = "image/x-icon"
	ContentTypeTIFF = "image/tiff"

	// Documents.
	ContentTypePDF  = "application/pdf"
	ContentTypeRTF  = "application/rtf"
	ContentTypeText = "text/plain"
	ContentTypeHTML = "text/html"
	ContentTypeCSS  = "text/css"
	ContentTypeJS   = "application/javascript"
	ContentTypeJSON = "application/json"
	ContentTypeXML  = "application/xml"

	// Microsoft Office.
	ContentTypeDOC  = "application/msword"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeXLS  = "application/vnd.ms-excel"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePPT  = "application/vnd.ms-powerpoint"
	ContentTypePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

	// OpenDocument.
	ContentTypeODT = "application/vnd.oasis.opendocument.text"
	ContentTypeODS = "application/vnd.oasis.opendocument.spreadsheet"
	ContentTypeODP = "application/vnd.oasis.opendocument.presentation"

	// Archives.
	ContentTypeZIP  = "application/zip"
	ContentTypeRAR  = "application/vnd.rar"
	ContentType7Z   = "application/x-7z-compressed"
	ContentTypeTAR  = "application/x-tar"
	ContentTypeGZIP = "application/gzip"

	// Other.
	ContentTypeOctetStream = "application/octet-stream"
	ContentTypeCSV         = "text/csv"
)

// rawContentTypes are document formats stored verbatim instead of auto-detected.
//
//nolint:gochecknoglobals // static lookup
var rawContentTypes = []string{
	ContentTypePDF, ContentTypeRTF,
	ContentTypeDOC, ContentTypeDOCX, ContentTypeXLS, ContentTypeXLSX, ContentTypePPT, ContentTypePPTX,
	ContentTypeODT, ContentTypeODS, ContentTypeODP,
	ContentTypeZIP, ContentTypeRAR, ContentType7Z, ContentTypeTAR, ContentTypeGZIP,
}

//nolint:gochecknoglobals // static lookup
var rawExtensions = []string{
	".pdf", ".rtf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
	".odt", ".ods", ".odp", ".zip", ".rar", ".7z", ".tar", ".gz",
}

// ResourceTypeFor picks the transfer mode for a file. Documents known to be
// mis-handled by automatic detection (PDF, office, archives) go raw.
func ResourceTypeFor(contentType, filename string) ResourceType {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if lo.Contains(rawContentTypes, ct) {
		return ResourceRaw
	}
	if lo.Contains(rawExtensions, strings.ToLower(filepath.Ext(filename))) {
		return ResourceRaw
	}
	return ResourceAuto
}
