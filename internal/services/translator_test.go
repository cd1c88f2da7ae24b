package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBatchRequest(t *testing.T) {
	config := TranslatorConfig{
		ProjectID:           "proj-123",
		SourceBucket:        "source-bucket",
		TargetBucket:        "target-bucket",
		TranslationLocation: "us-central1",
		SourceLanguage:      "nl",
	}
	blobs := []string{"abc-report.docx", "def-figures.xlsx"}

	req := buildBatchRequest(config, blobs, "en")

	assert.Equal(t, "projects/proj-123/locations/us-central1", req.GetParent())
	assert.Equal(t, "nl", req.GetSourceLanguageCode())
	assert.Equal(t, []string{"en"}, req.GetTargetLanguageCodes())

	require.Len(t, req.GetInputConfigs(), 2)
	assert.Equal(t, "gs://source-bucket/abc-report.docx", req.GetInputConfigs()[0].GetGcsSource().GetInputUri())
	assert.Equal(t, "gs://source-bucket/def-figures.xlsx", req.GetInputConfigs()[1].GetGcsSource().GetInputUri())

	assert.Equal(t, "gs://target-bucket/en/", req.GetOutputConfig().GetGcsDestination().GetOutputUriPrefix())
}

// Different target languages write under different prefixes so their
// outputs never collide.
func TestBuildBatchRequestLanguagePrefixes(t *testing.T) {
	config := TranslatorConfig{
		ProjectID:           "p",
		SourceBucket:        "s",
		TargetBucket:        "t",
		TranslationLocation: "europe-west1",
		SourceLanguage:      "nl",
	}
	fr := buildBatchRequest(config, []string{"a.pdf"}, "fr")
	de := buildBatchRequest(config, []string{"a.pdf"}, "de")

	assert.Equal(t, "gs://t/fr/", fr.GetOutputConfig().GetGcsDestination().GetOutputUriPrefix())
	assert.Equal(t, "gs://t/de/", de.GetOutputConfig().GetGcsDestination().GetOutputUriPrefix())
	assert.NotEqual(t,
		fr.GetOutputConfig().GetGcsDestination().GetOutputUriPrefix(),
		de.GetOutputConfig().GetGcsDestination().GetOutputUriPrefix())
}
