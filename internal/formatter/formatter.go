package formatter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/juju/errors"

	"github.com/KnockOutEZ/copydeck/internal/source"
)

const (
	StylePlain    = "plain"
	StyleMarkdown = "markdown"
	StyleXML      = "xml"
)

type Options struct {
	Style           string
	ShowLineNumbers bool
}

// Formatter assembles payload items into the text that goes to the
// clipboard.
type Formatter interface {
	Format(items []source.Item) (string, error)
}

func NewFormatter(opts Options) (Formatter, error) {
	var styled Formatter
	switch strings.ToLower(opts.Style) {
	case "", StylePlain:
		styled = &PlainFormatter{opts: opts}
	case StyleMarkdown:
		styled = &MarkdownFormatter{opts: opts}
	case StyleXML:
		styled = &XMLFormatter{opts: opts}
	default:
		return nil, errors.NotValidf("output style %q", opts.Style)
	}
	return &singleItem{styled: styled, opts: opts}, nil
}

// singleItem copies a lone item verbatim; styles only kick in when several
// items have to be told apart.
type singleItem struct {
	styled Formatter
	opts   Options
}

func (f *singleItem) Format(items []source.Item) (string, error) {
	switch len(items) {
	case 0:
		return "", errors.NotFoundf("payload items")
	case 1:
		return content(items[0], f.opts), nil
	}
	return f.styled.Format(items)
}

func content(item source.Item, opts Options) string {
	if opts.ShowLineNumbers {
		return addLineNumbers(item.Content)
	}
	return item.Content
}

func addLineNumbers(content string) string {
	lines := strings.Split(content, "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	var sb strings.Builder
	for i, line := range lines {
		sb.WriteString(fmt.Sprintf("%5d | %s\n", i+1, line))
	}
	return sb.String()
}

func getLanguageFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return "go"
	case ".js", ".mjs":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	case ".py":
		return "python"
	case ".java":
		return "java"
	case ".rs":
		return "rust"
	case ".rb":
		return "ruby"
	case ".sh", ".bash":
		return "bash"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".xml":
		return "xml"
	case ".html":
		return "html"
	case ".css":
		return "css"
	case ".sql":
		return "sql"
	case ".md":
		return "markdown"
	}
	return ""
}
