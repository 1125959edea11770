package formatter

import (
	"fmt"
	"strings"

	"github.com/KnockOutEZ/copydeck/internal/source"
)

type MarkdownFormatter struct {
	opts Options
}

func (f *MarkdownFormatter) Format(items []source.Item) (string, error) {
	var sb strings.Builder

	for _, item := range items {
		sb.WriteString(fmt.Sprintf("### %s\n\n", item.Name))

		body := content(item, f.opts)
		fence := fenceFor(body)

		sb.WriteString(fence)
		// Add language hint for syntax highlighting if available
		if lang := getLanguageFromPath(item.Name); lang != "" && !f.opts.ShowLineNumbers {
			sb.WriteString(lang)
		}
		sb.WriteString("\n")
		sb.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString(fence + "\n\n")
	}

	return sb.String(), nil
}

// fenceFor returns a backtick fence longer than any run inside body.
func fenceFor(body string) string {
	longest, run := 0, 0
	for _, r := range body {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	if longest < 3 {
		return "```"
	}
	return strings.Repeat("`", longest+1)
}
