package constants

import "strings"

// SourceKind tells the normalizer how to read a raw input.
type SourceKind string

const (
	// TEXT is a line-oriented corpus produced by OCR or a PDF text layer.
	TEXT SourceKind = "TEXT"
	// MACHINE is a JSON-ish blob returned by an extraction model.
	MACHINE SourceKind = "MACHINE"
	// ROWS is tabular data decoded from a spreadsheet.
	ROWS SourceKind = "ROWS"
)

// FileFormat is the coarse format of an input file.
type FileFormat string

const (
	PDF         FileFormat = "PDF"
	IMAGE       FileFormat = "IMAGE"
	SPREADSHEET FileFormat = "SPREADSHEET"
	PLAINTEXT   FileFormat = "PLAINTEXT"
	UNKNOWN     FileFormat = "UNKNOWN"
)

// AllowedExtensions holds the default allowed file extensions for ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"tif":  {},
	"tiff": {},
	"xlsx": {},
	"csv":  {},
	"txt":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToFormat maps a file extension (with or without the dot) to a FileFormat.
func MapExtToFormat(ext string) FileFormat {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png", "tif", "tiff", "bmp", "webp":
		return IMAGE
	case "xlsx", "xlsm", "csv":
		return SPREADSHEET
	case "txt", "text":
		return PLAINTEXT
	default:
		return UNKNOWN
	}
}
