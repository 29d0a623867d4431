package bundle

import (
	"strings"
	"testing"

	"profilemeister/internal/util"

	"github.com/stretchr/testify/require"
)

func testDocs() []Document {
	return []Document{
		{FileID: "f2", Filename: "Acme_Q2.pdf", Text: "second filing"},
		{FileID: "f1", Filename: "Acme_AR.pdf", Text: "annual report"},
	}
}

func TestNewOrdersByFilename(t *testing.T) {
	b, err := New(testDocs(), 0)
	require.NoError(t, err)
	require.Equal(t, "Acme_AR.pdf", b.Documents[0].Filename)
	require.Equal(t, len("annual report")+len("second filing"), b.TotalBytes)
}

func TestFingerprintDeterministic(t *testing.T) {
	a, err := New(testDocs(), 0)
	require.NoError(t, err)

	// Same documents in a different input order must fingerprint identically.
	docs := testDocs()
	docs[0], docs[1] = docs[1], docs[0]
	b, err := New(docs, 0)
	require.NoError(t, err)
	require.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestFingerprintChangesWithContent(t *testing.T) {
	a, _ := New(testDocs(), 0)
	docs := testDocs()
	docs[0].Text = "second filing, amended"
	b, err := New(docs, 0)
	require.NoError(t, err)
	require.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestNewRejectsOversizedBundle(t *testing.T) {
	docs := []Document{{FileID: "f1", Filename: "big.pdf", Text: strings.Repeat("x", 100)}}
	_, err := New(docs, 50)
	require.ErrorIs(t, err, util.ErrBundleTooLarge)
}

func TestContextBlocksClipPerDocument(t *testing.T) {
	docs := []Document{{FileID: "f1", Filename: "Acme_AR.pdf", Text: strings.Repeat("word ", 200)}}
	b, err := New(docs, 0)
	require.NoError(t, err)
	blocks := b.ContextBlocks(50)
	require.Len(t, blocks, 1)
	require.Contains(t, blocks[0], `filename="Acme_AR.pdf"`)
	require.Contains(t, blocks[0], "[...]")
}

func TestCompanyNameFromFirstFilename(t *testing.T) {
	b, err := New(testDocs(), 0)
	require.NoError(t, err)
	require.Equal(t, "Acme", b.CompanyName())

	empty := Bundle{}
	require.Equal(t, "Unknown_Company", empty.CompanyName())
}
