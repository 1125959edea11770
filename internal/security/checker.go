package security

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/juju/errors"

	"github.com/KnockOutEZ/copydeck/internal/source"
)

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issue represents a likely secret found in the payload
type Issue struct {
	Item     string   `json:"item"`
	Line     int      `json:"line"`
	RuleID   string   `json:"ruleId"`
	Message  string   `json:"message"`
	Severity string   `json:"severity"`
	Matches  []string `json:"matches,omitempty"`
}

type Rule struct {
	ID       string
	Name     string
	Severity string
	Pattern  *regexp.Regexp
}

// DefaultRules flag the secrets people most often paste by accident.
var DefaultRules = []Rule{
	{ID: "aws-access-key", Name: "AWS Access Key", Severity: SeverityError, Pattern: regexp.MustCompile(`\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`)},
	{ID: "private-key", Name: "Private Key", Severity: SeverityError, Pattern: regexp.MustCompile(`-----BEGIN[A-Z ]*PRIVATE KEY-----`)},
	{ID: "github-token", Name: "GitHub Token", Severity: SeverityError, Pattern: regexp.MustCompile(`\bgh[pousr]_[0-9A-Za-z]{36}\b`)},
	{ID: "google-api-key", Name: "Google API Key", Severity: SeverityError, Pattern: regexp.MustCompile(`\bAIza[0-9A-Za-z\-_]{35}\b`)},
	{ID: "slack-token", Name: "Slack Token", Severity: SeverityError, Pattern: regexp.MustCompile(`\bxox[abposr]-[0-9A-Za-z-]{10,}\b`)},
	{ID: "password-assignment", Name: "Password in Code", Severity: SeverityWarning, Pattern: regexp.MustCompile(`(?i)(?:password|passwd|pwd)\s*[:=]\s*['"][^'"]+['"]`)},
	{ID: "api-key-assignment", Name: "API Key in Code", Severity: SeverityWarning, Pattern: regexp.MustCompile(`(?i)(?:api_key|apikey|api_secret|apisecret)\s*[:=]\s*['"][^'"]+['"]`)},
}

// Checker scans payload items for likely secrets before they reach the
// clipboard, where any other program can read them.
type Checker struct {
	rules []Rule
}

// NewChecker returns a checker using rules, or DefaultRules when none are
// given.
func NewChecker(rules ...Rule) *Checker {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Checker{rules: rules}
}

// Check returns one issue per rule and line that matched, in item and line
// order. Matches are redacted.
func (c *Checker) Check(items []source.Item) []Issue {
	var issues []Issue
	for _, item := range items {
		issues = append(issues, c.checkItem(item)...)
	}
	return issues
}

func (c *Checker) checkItem(item source.Item) []Issue {
	var issues []Issue
	for i, line := range strings.Split(item.Content, "\n") {
		for _, rule := range c.rules {
			matches := rule.Pattern.FindAllString(line, -1)
			if len(matches) == 0 {
				continue
			}

			redacted := make([]string, len(matches))
			for j, m := range matches {
				redacted[j] = redact(m)
			}

			issues = append(issues, Issue{
				Item:     item.Name,
				Line:     i + 1,
				RuleID:   rule.ID,
				Message:  fmt.Sprintf("Potential %s found", rule.Name),
				Severity: rule.Severity,
				Matches:  redacted,
			})
		}
	}
	return issues
}

// HasErrors reports whether any issue is error severity.
func HasErrors(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

func redact(s string) string {
	const keep = 4
	if len(s) <= keep {
		return strings.Repeat("*", len(s))
	}
	return s[:keep] + strings.Repeat("*", len(s)-keep)
}

// CreateReport renders issues as "text" or "json".
func CreateReport(issues []Issue, format string) (string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(issues, "", "  ")
		if err != nil {
			return "", errors.Trace(err)
		}
		return string(data), nil

	case "text":
		var sb strings.Builder
		if len(issues) == 0 {
			sb.WriteString("No security issues found.\n")
			return sb.String(), nil
		}

		for _, issue := range issues {
			sb.WriteString(fmt.Sprintf("- %s:%d: [%s] %s", issue.Item, issue.Line, issue.Severity, issue.Message))
			if len(issue.Matches) > 0 {
				sb.WriteString(" (" + strings.Join(issue.Matches, ", ") + ")")
			}
			sb.WriteString("\n")
		}
		return sb.String(), nil

	default:
		return "", errors.NotValidf("report format %q", format)
	}
}
