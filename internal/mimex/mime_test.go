package mimex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentTypeByFilename(t *testing.T) {
	tests := map[string]string{
		"sheet.xls":      "application/vnd.ms-excel",
		"sheet.xlsx":     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"letter.doc":     "application/msword",
		"letter.docx":    "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"deck.ppt":       "application/vnd.ms-powerpoint",
		"deck.pptx":      "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"report.pdf":     "application/pdf",
		"logo.png":       "image/png",
		"photo.jpg":      "image/jpeg",
		"photo.jpeg":     "image/jpeg",
		"anim.gif":       "image/gif",
		"export.csv":     "text/csv",
		"REPORT.PDF":     "application/pdf",
		"archive.tar.gz": DefaultContentType,
		"unknown.xyz":    DefaultContentType,
		"pdf":            DefaultContentType,
		"noext.":         DefaultContentType,
		"":               DefaultContentType,
	}

	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, ContentTypeByFilename(name))
		})
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "png", Extension("a/b/c.PNG"))
	assert.Equal(t, "gz", Extension("x.tar.gz"))
	assert.Equal(t, "", Extension("README"))
}

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage("image/png"))
	assert.True(t, IsImage(" Image/JPEG"))
	assert.False(t, IsImage("application/pdf"))
	assert.False(t, IsImage(""))
}
