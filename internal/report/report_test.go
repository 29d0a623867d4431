package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"profilemeister/internal/profile"
)

func sampleProfile() profile.Profile {
	return profile.Profile{
		RunID:       "run-1",
		CompanyName: "Acme",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Entries: []profile.Entry{
			{SectionID: "operating-footprint", Number: 1, Title: "Operating Footprint", Text: "## Facilities\n\nTwo plants in *Ohio*."},
			{SectionID: "financial-overview", Number: 9, Title: "Financial Overview", Failed: true, FailReason: profile.ReasonGatewayExhausted, FailStage: profile.StageFact},
		},
	}
}

func TestRenderOrdersSectionsAndTOC(t *testing.T) {
	out, err := Render(sampleProfile())
	require.NoError(t, err)

	require.Contains(t, out, "Company Profile: Acme")
	require.Contains(t, out, `<section id="section-operating-footprint">`)
	require.Contains(t, out, `<section id="section-financial-overview">`)
	require.Less(t,
		strings.Index(out, "section-operating-footprint"),
		strings.Index(out, "section-financial-overview"))
	require.Contains(t, out, `<a href="#section-operating-footprint">Operating Footprint</a>`)
}

func TestRenderConvertsMarkdown(t *testing.T) {
	out, err := Render(sampleProfile())
	require.NoError(t, err)
	require.Contains(t, out, "<h2>Facilities</h2>")
	require.Contains(t, out, "<em>Ohio</em>")
}

func TestRenderFailedSectionPlaceholder(t *testing.T) {
	out, err := Render(sampleProfile())
	require.NoError(t, err)
	require.Contains(t, out, `<p class="error">`)
	require.Contains(t, out, "kept failing after repeated attempts")
	require.Contains(t, out, "during fact refine")
	require.NotContains(t, out, "gateway_exhausted")
}

func TestRenderEscapesCompanyName(t *testing.T) {
	p := sampleProfile()
	p.CompanyName = "Acme <script>"
	out, err := Render(p)
	require.NoError(t, err)
	require.NotContains(t, out, "<script>")
	require.Contains(t, out, "Acme &lt;script&gt;")
}
