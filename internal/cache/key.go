package cache

import (
	"strings"

	"profilemeister/internal/util"
)

// Key derives the content-addressed cache key for one stage of one section.
// It folds in everything that determines the model output: section id, prompt
// template version, stage name, the stage's direct text inputs (upstream
// section texts for a draft, the previous stage's text for a refinement) and
// the document bundle fingerprint. Identical inputs always produce the
// identical key, across processes and runs.
func Key(sectionID, promptVersion, stage string, inputs []string, bundleFP string) string {
	var b strings.Builder
	b.WriteString(sectionID)
	b.WriteByte(0x1f)
	b.WriteString(promptVersion)
	b.WriteByte(0x1f)
	b.WriteString(stage)
	b.WriteByte(0x1f)
	for _, in := range inputs {
		// Hash each input separately so boundary shifts between adjacent
		// inputs cannot alias to the same key.
		b.WriteString(util.SHA256Hex([]byte(in)))
		b.WriteByte(0x1f)
	}
	b.WriteString(bundleFP)
	return util.SHA256Hex([]byte(b.String()))
}
