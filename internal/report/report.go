package report

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"

	"profilemeister/internal/profile"
)

// Render assembles the final HTML report from a completed profile. Sections
// appear in catalog order with a table of contents up front. Failed sections
// keep their slot with an error placeholder so the reader sees what is
// missing and why.
func Render(p profile.Profile) (string, error) {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>Company Profile: %s</title>\n", html.EscapeString(p.CompanyName))
	b.WriteString(styleBlock)
	b.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&b, "<h1>Company Profile: %s</h1>\n", html.EscapeString(p.CompanyName))
	fmt.Fprintf(&b, "<p class=\"meta\">Run %s, generated %s</p>\n",
		html.EscapeString(p.RunID), p.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"))

	b.WriteString("<nav id=\"toc\">\n<h2>Contents</h2>\n<ol>\n")
	for _, e := range p.Entries {
		cls := ""
		if e.Failed {
			cls = " class=\"failed\""
		}
		fmt.Fprintf(&b, "<li%s><a href=\"#%s\">%s</a></li>\n", cls, anchorID(e), html.EscapeString(e.Title))
	}
	b.WriteString("</ol>\n</nav>\n")

	for _, e := range p.Entries {
		fmt.Fprintf(&b, "<section id=\"%s\">\n", anchorID(e))
		fmt.Fprintf(&b, "<h2>%d. %s</h2>\n", e.Number, html.EscapeString(e.Title))
		if e.Failed {
			fmt.Fprintf(&b, "<p class=\"error\">Section unavailable: %s</p>\n", failureText(e))
		} else {
			body, err := markdownToHTML(e.Text)
			if err != nil {
				return "", fmt.Errorf("render section %s: %w", e.SectionID, err)
			}
			b.WriteString(body)
		}
		b.WriteString("</section>\n")
	}

	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

func markdownToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func anchorID(e profile.Entry) string {
	return "section-" + e.SectionID
}

func failureText(e profile.Entry) string {
	msg, ok := failureMessages[e.FailReason]
	if !ok {
		msg = "generation failed"
	}
	if e.FailStage != "" {
		return fmt.Sprintf("%s (during %s)", msg, strings.ReplaceAll(string(e.FailStage), "_", " "))
	}
	return msg
}

var failureMessages = map[profile.FailReason]string{
	profile.ReasonDependencyFailed: "a prerequisite section failed, so this section was not attempted",
	profile.ReasonGatewayExhausted: "the model gateway kept failing after repeated attempts",
	profile.ReasonContentRejected:  "the model declined to generate this content",
	profile.ReasonMalformed:        "the model returned an unusable response",
	profile.ReasonCacheCollision:   "a cache integrity check failed",
	profile.ReasonRunCancelled:     "the run was cancelled before this section finished",
}

const styleBlock = `<style>
body { font-family: Georgia, serif; max-width: 52em; margin: 2em auto; padding: 0 1em; color: #1a1a1a; }
h1 { border-bottom: 2px solid #1a1a1a; padding-bottom: 0.3em; }
p.meta { color: #666; font-size: 0.9em; }
nav#toc { background: #f6f6f4; padding: 1em 2em; border: 1px solid #ddd; }
nav#toc li.failed a { color: #a33; }
section { margin-top: 2.5em; }
p.error { background: #fbeaea; border-left: 4px solid #a33; padding: 0.8em 1em; color: #7a2020; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 0.3em 0.7em; }
</style>
`
