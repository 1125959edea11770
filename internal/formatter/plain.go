package formatter

import (
	"fmt"
	"strings"

	"github.com/KnockOutEZ/copydeck/internal/source"
)

const plainBar = "================================================================"

type PlainFormatter struct {
	opts Options
}

func (f *PlainFormatter) Format(items []source.Item) (string, error) {
	var sb strings.Builder

	for i, item := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(plainBar + "\n")
		sb.WriteString(fmt.Sprintf("%s (%s)\n", item.Name, item.Origin))
		sb.WriteString(plainBar + "\n")

		body := content(item, f.opts)
		sb.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}
