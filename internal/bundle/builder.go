package bundle

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"profilemeister/internal/util"

	"github.com/ledongthuc/pdf"
)

// BuildFromDir extracts text from every PDF in dir and assembles the bundle.
// Documents with no extractable text fail the build: a profile generated from
// a silently empty filing is worse than an upfront error.
func BuildFromDir(dir string, maxBytes int) (Bundle, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Bundle{}, fmt.Errorf("read input dir: %w", err)
	}
	paths := make([]string, 0)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return Bundle{}, fmt.Errorf("no PDF files in %s", dir)
	}

	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		doc, err := extractDocument(path)
		if err != nil {
			return Bundle{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		docs = append(docs, doc)
	}
	return New(docs, maxBytes)
}

func extractDocument(path string) (Document, error) {
	fileID, err := hashFile(path)
	if err != nil {
		return Document{}, err
	}
	f, r, err := pdf.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return Document{}, fmt.Errorf("extract pdf text: %w", err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return Document{}, fmt.Errorf("read extracted text: %w", err)
	}
	text := util.SanitizeText(buf.String())
	if text == "" {
		return Document{}, util.ErrNoExtractableText
	}
	return Document{
		FileID:   fileID,
		Filename: filepath.Base(path),
		Text:     text,
		Bytes:    len(text),
	}, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for hash: %w", err)
	}
	defer f.Close()
	return util.SHA256HexFromReader(f)
}
