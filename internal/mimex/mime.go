// Package mimex resolves response content types for stored assets.
package mimex

import (
	"path"
	"strings"
)

// DefaultContentType is returned for unknown or missing extensions.
const DefaultContentType = "application/octet-stream"

var contentTypes = map[string]string{
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"pdf":  "application/pdf",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"csv":  "text/csv",
}

// Extension returns the lower-cased extension of filename without the dot,
// or "" when there is none.
func Extension(filename string) string {
	ext := path.Ext(filename)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// ContentTypeByFilename maps filename's extension to a MIME type.
// It never fails: anything unknown is DefaultContentType.
func ContentTypeByFilename(filename string) string {
	if ct, ok := contentTypes[Extension(filename)]; ok {
		return ct
	}
	return DefaultContentType
}

// IsImage reports whether a MIME type denotes an image.
func IsImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image")
}
