package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressionForPath(t *testing.T) {
	tests := []struct {
		path string
		want Compression
		base string
	}{
		{"docs.json", CompressionNone, "docs.json"},
		{"docs.json.gz", CompressionGzip, "docs.json"},
		{"dir/Docs.YAML.ZST", CompressionZstd, "dir/Docs.YAML"},
		{"docs.yml.lz4", CompressionLZ4, "docs.yml"},
	}
	for _, tt := range tests {
		c, base := CompressionForPath(tt.path)
		assert.Equal(t, tt.want, c, tt.path)
		assert.Equal(t, tt.base, base, tt.path)
	}
	assert.Equal(t, "yaml", ForPath(tests[2].base).Name())
}

func TestCompressRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte(`{"entry":"ann","tags":["admin"]},`), 64)

	for _, c := range []Compression{CompressionNone, CompressionGzip, CompressionZstd, CompressionLZ4} {
		t.Run(c.String(), func(t *testing.T) {
			packed, err := Compress(c, data)
			require.NoError(t, err)
			if c != CompressionNone {
				assert.Less(t, len(packed), len(data))
			}

			got, err := Decompress(c, packed)
			require.NoError(t, err)
			assert.Equal(t, data, got)
		})
	}
}

func TestDecompressErrors(t *testing.T) {
	garbage := []byte("definitely not compressed")

	_, err := Decompress(CompressionGzip, garbage)
	require.ErrorContains(t, err, "gzip")

	_, err = Decompress(CompressionZstd, garbage)
	require.ErrorContains(t, err, "zstd")

	_, err = Decompress(CompressionLZ4, garbage)
	require.ErrorContains(t, err, "lz4")

	_, err = Decompress(Compression(42), garbage)
	require.ErrorContains(t, err, "compression(42)")
}
