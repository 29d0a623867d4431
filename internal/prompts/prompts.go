package prompts

import (
	"fmt"
	"strings"

	"profilemeister/internal/catalog"
)

// Version is part of every cache key. Bump it whenever any template below
// changes, otherwise stale cached sections will be served for new prompts.
const Version = "v2"

// Generation settings per stage. Fact checking runs conservative, drafting
// and insight enhancement run creative.
const (
	DraftTemperature   = 0.8
	FactTemperature    = 0.3
	InsightTemperature = 0.8
)

const persona = `You are an unbiased and insightful bulge bracket investment banker, a leading expert in corporate strategy, mergers & acquisitions advisory, capital structure advisory and global capital markets, with a three-decade track record of analysing companies. You create deep and novel insights by way of logical step-by-step reasoning, always underpinned by verifiable facts.`

const analysisSpecs = `Please ensure that:
- All statements are based solely on the supplied source documents.
- Your analysis is neutral: documents issued by the company itself usually present it in a better light than it deserves.
- Within each section, start with the most important aspect and continue in declining order of importance.
- Every data point is referenced to the period it relates to.
- When you calculate a figure yourself (e.g. EBITDA Margin = EBITDA / Revenues), mark it with [calc].
- The most recent reporting period and forward-looking statements are usually the most relevant.
- The writing style is analytical, concise and insightful beyond the obvious; flag multi-step, non-obvious insights with a brief logical chain.`

const outputFormat = `Format the section as Markdown:
- Start with a level-two heading: "## {number}. {title}".
- Use level-three headings for subsections, standard Markdown tables for data, and bullet lists where appropriate.
- Do not wrap the output in code fences and do not repeat the section title outside the heading.`

// DraftContext carries everything the draft template needs. Dependencies are
// the final texts of upstream sections, already resolved by the scheduler.
type DraftContext struct {
	Section      catalog.SectionSpec
	CompanyName  string
	Dependencies []DependencyText
}

type DependencyText struct {
	ID    string
	Title string
	Text  string
}

// RefineContext carries the text a refinement pass operates on: the draft for
// the fact pass, the fact-refined text for the insight pass.
type RefineContext struct {
	Section catalog.SectionSpec
	Input   string
}

// RenderDraft produces the draft-stage prompt. Document excerpts travel
// separately as gateway context, not inside the prompt string.
func RenderDraft(c DraftContext) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Create section %d: %s of the company profile for %s.\n\n", c.Section.Number, c.Section.Title, c.CompanyName)
	b.WriteString("Specification for this section:\n")
	b.WriteString(c.Section.Specs)
	b.WriteString("\n\nFocus exclusively on this section.\n\n")
	b.WriteString(analysisSpecs)
	if len(c.Dependencies) > 0 {
		b.WriteString("\n\nFinal text of sections this one builds on. Reference their findings, do not repeat them:\n")
		for _, dep := range c.Dependencies {
			fmt.Fprintf(&b, "\n<upstream_section id=%q title=%q>\n%s\n</upstream_section>\n", dep.ID, dep.Title, dep.Text)
		}
	}
	b.WriteString("\n\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(outputFormat,
		"{number}", fmt.Sprintf("%d", c.Section.Number)), "{title}", c.Section.Title))
	return b.String()
}

// RenderFactRefine asks the model to cross-check the draft against the source
// documents and return a corrected version. Returning the text unchanged is a
// valid outcome.
func RenderFactRefine(c RefineContext) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Below is a draft of section %d: %s of a company profile.\n", c.Section.Number, c.Section.Title)
	b.WriteString("Cross-check every factual claim in the draft against the supplied source documents. ")
	b.WriteString("Correct figures, dates, names and attributions that the sources contradict, and remove claims the sources do not support. ")
	b.WriteString("If the draft is factually sound, return it unchanged. ")
	b.WriteString("Return only the full, corrected section text in the same Markdown structure.\n\n")
	b.WriteString("<draft>\n")
	b.WriteString(c.Input)
	b.WriteString("\n</draft>")
	return b.String()
}

// RenderInsightRefine deepens the analysis of the fact-checked text. It never
// sees the raw draft, so factual drift introduced before the fact pass cannot
// resurface here.
func RenderInsightRefine(c RefineContext) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Below is the fact-checked text of section %d: %s of a company profile.\n", c.Section.Number, c.Section.Title)
	b.WriteString("Deepen the analysis: add non-obvious, multi-step insights with a brief logical chain for each, ")
	b.WriteString("and sharpen the ordering so the most important points lead. ")
	b.WriteString("Do not alter, add or remove any factual statement; build only on facts already present. ")
	b.WriteString("Return only the full, enhanced section text in the same Markdown structure.\n\n")
	b.WriteString("<section>\n")
	b.WriteString(c.Input)
	b.WriteString("\n</section>")
	return b.String()
}
