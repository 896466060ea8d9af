package gcsuploader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGCSURI(t *testing.T) {
	tests := []struct {
		name       string
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{"nested object", "gs://statements-bucket/statements/u1/doc/file.pdf", "statements-bucket", "statements/u1/doc/file.pdf", false},
		{"top level object", "gs://b/file.png", "b", "file.png", false},
		{"missing scheme", "s3://b/file.pdf", "", "", true},
		{"bucket only", "gs://b", "", "", true},
		{"empty object", "gs://b/", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, object, err := ParseGCSURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantObject, object)
			assert.Equal(t, tt.uri, BuildGCSURI(bucket, object))
		})
	}
}

func TestExtractFilenameFromGCSURI(t *testing.T) {
	assert.Equal(t, "file.pdf", ExtractFilenameFromGCSURI("gs://bucket/folder/file.pdf"))
	assert.Equal(t, "file.pdf", ExtractFilenameFromGCSURI("gs://bucket/file.pdf"))
	assert.Equal(t, "bucket", ExtractFilenameFromGCSURI("gs://bucket"))
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "statements/u1/doc-9/Estado_Octubre.pdf", ObjectName("statements", "u1", "doc-9", "Estado Octubre.pdf"))
	assert.Equal(t, "statements/u1/doc-9/scan.png", ObjectName("statements", "u1", "doc-9", `C:\Users\me\scan.png`))
	assert.Equal(t, "statements/u1/doc-9/statement", ObjectName("statements", "u1", "doc-9", ""))
	assert.Equal(t, "statements/u1/doc-9/passwd", ObjectName("statements", "u1", "doc-9", "../../etc/passwd"))
}
