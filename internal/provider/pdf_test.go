package provider

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextShowingOperatorExtractsLiteralStrings(t *testing.T) {
	stream := []byte(`BT /F1 12 Tf (Good morning everyone) Tj ET`)
	matches := textShowingOperator.FindAllSubmatch(stream, -1)
	require.Len(t, matches, 1)
	assert.Equal(t, "Good morning everyone", string(matches[0][1]))
}

func TestTextShowingOperatorHandlesEscapedParens(t *testing.T) {
	stream := []byte(`(Revenue \(Q1\) grew) Tj`)
	matches := textShowingOperator.FindAllSubmatch(stream, -1)
	require.Len(t, matches, 1)
	assert.Equal(t, `Revenue (Q1) grew`, pdfEscape.Replace(string(matches[0][1])))
}

func TestDecompressedStreamsInflatesFlateContent(t *testing.T) {
	var compressed bytes.Buffer
	w := zlib.NewWriter(&compressed)
	_, err := w.Write([]byte(`(hello from a compressed stream) Tj`))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	pdfBytes := append([]byte("obj <<>>\nstream\n"), compressed.Bytes()...)
	pdfBytes = append(pdfBytes, []byte("\nendstream\nendobj")...)

	streams := decompressedStreams(pdfBytes)
	require.Len(t, streams, 1)
	assert.Contains(t, string(streams[0]), "hello from a compressed stream")
}

func TestDecompressedStreamsPassesThroughUncompressedContent(t *testing.T) {
	pdfBytes := []byte("obj <<>>\nstream\n(plain text) Tj\nendstream\nendobj")
	streams := decompressedStreams(pdfBytes)
	require.Len(t, streams, 1)
	assert.Contains(t, string(streams[0]), "plain text")
}
