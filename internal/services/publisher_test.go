package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceBlobFromOutput(t *testing.T) {
	tests := []struct {
		name       string
		objectName string
		language   string
		want       string
	}{
		{
			name:       "translation service marker",
			objectName: "en/abc123-report_en_translations.docx",
			language:   "en",
			want:       "abc123-report.docx",
		},
		{
			name:       "marker with escaped original name",
			objectName: "en/abc123-Annual%20Report_en_translations.docx",
			language:   "en",
			want:       "abc123-Annual%20Report.docx",
		},
		{
			name:       "no marker",
			objectName: "en/abc123-report.docx",
			language:   "en",
			want:       "abc123-report.docx",
		},
		{
			name:       "nested prefix",
			objectName: "fr/batch-7/doc_fr_translations.pdf",
			language:   "fr",
			want:       "doc.pdf",
		},
		{
			name:       "marker for another language is kept",
			objectName: "en/doc_fr_translations.pdf",
			language:   "en",
			want:       "doc_fr_translations.pdf",
		},
		{
			name:       "no extension",
			objectName: "en/notes_en_translations",
			language:   "en",
			want:       "notes",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sourceBlobFromOutput(tt.objectName, tt.language))
		})
	}
}

// The recovered blob name feeds the download filename, so a full output
// object maps back to a friendly name.
func TestOutputObjectToDownloadName(t *testing.T) {
	object := "en/550e8400-e29b-41d4-a716-446655440000-Annual%20Report_en_translations.docx"
	blob := sourceBlobFromOutput(object, "en")
	assert.Equal(t, "en_Annual Report_translated.docx", DownloadName(blob, "en"))
}
