package bundle

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"profilemeister/internal/util"
)

// DefaultMaxBytes caps the aggregate extracted-text size of one bundle.
const DefaultMaxBytes = 20 << 20

// Document is one source PDF after extraction. Immutable once built.
type Document struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	Text     string `json:"text"`
	Bytes    int    `json:"bytes"`
}

// Bundle is the normalized input to a profile run: ordered documents plus
// the aggregate size. Read-only to every section pipeline.
type Bundle struct {
	Documents  []Document `json:"documents"`
	TotalBytes int        `json:"total_bytes"`
}

// New validates sizes and fixes the document order (by filename) so the
// fingerprint does not depend on discovery order.
func New(docs []Document, maxBytes int) (Bundle, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	sorted := append([]Document(nil), docs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Filename < sorted[j].Filename })
	total := 0
	for i := range sorted {
		if sorted[i].Bytes == 0 {
			sorted[i].Bytes = len(sorted[i].Text)
		}
		total += sorted[i].Bytes
	}
	if total > maxBytes {
		return Bundle{}, fmt.Errorf("%w: %d bytes > %d", util.ErrBundleTooLarge, total, maxBytes)
	}
	return Bundle{Documents: sorted, TotalBytes: total}, nil
}

// Fingerprint is a deterministic digest over the ordered (file id, text)
// pairs. Identical document sets always produce the identical fingerprint,
// which is what makes cache hits across runs possible.
func (b Bundle) Fingerprint() string {
	var sb strings.Builder
	for _, d := range b.Documents {
		sb.WriteString(d.FileID)
		sb.WriteByte(0x1f)
		sb.WriteString(d.Text)
		sb.WriteByte(0x1e)
	}
	return util.SHA256Hex([]byte(sb.String()))
}

// ContextBlocks returns one prompt-context block per document, each clipped
// to maxRunesPerDoc so a handful of long filings cannot blow the model's
// context window.
func (b Bundle) ContextBlocks(maxRunesPerDoc int) []string {
	out := make([]string, 0, len(b.Documents))
	for _, d := range b.Documents {
		text := d.Text
		if maxRunesPerDoc > 0 {
			text = util.ClipText(text, maxRunesPerDoc)
		}
		out = append(out, fmt.Sprintf("<document filename=%q>\n%s\n</document>", d.Filename, text))
	}
	return out
}

var companyNamePattern = regexp.MustCompile(`^([A-Za-z]+)`)

// CompanyName derives a company name from the first document's filename,
// matching the leading alphabetic run ("Siemens_AR_2024.pdf" -> "Siemens").
func (b Bundle) CompanyName() string {
	for _, d := range b.Documents {
		m := companyNamePattern.FindStringSubmatch(d.Filename)
		if len(m) == 2 && m[1] != "" {
			return m[1]
		}
	}
	return "Unknown_Company"
}
