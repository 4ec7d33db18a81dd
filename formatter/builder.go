package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"

	"github.com/fatih/color"

	tt "github.com/gnolang/cilint/internal/types"
)

// issue categories with a dedicated layout
const (
	QueryCategory       = "query"
	InterpreterCategory = "interpreter"
)

var (
	errorStyle      = color.New(color.FgRed, color.Bold)
	warningStyle    = color.New(color.FgHiYellow, color.Bold)
	infoStyle       = color.New(color.FgHiCyan, color.Bold)
	ruleStyle       = color.New(color.FgYellow, color.Bold)
	fileStyle       = color.New(color.FgCyan, color.Bold)
	lineStyle       = color.New(color.FgHiBlue, color.Bold)
	messageStyle    = color.New(color.FgRed, color.Bold)
	suggestionStyle = color.New(color.FgGreen, color.Bold)
	conditionStyle  = color.New(color.FgMagenta)
)

// issueFormatter is the interface that wraps the IssueTemplate method.
// Implementations of this interface are responsible for formatting specific kinds of lint issues.
type issueFormatter interface {
	IssueTemplate() string
}

// getIssueFormatter returns the formatter for the issue's category,
// falling back to GeneralIssueFormatter.
func getIssueFormatter(category string) issueFormatter {
	switch category {
	case QueryCategory:
		return &QueryRootFormatter{}
	case InterpreterCategory:
		return &EvaluationErrorFormatter{}
	default:
		return &GeneralIssueFormatter{}
	}
}

// GenerateFormattedIssue formats a slice of issues into a human-readable string.
func GenerateFormattedIssue(issues []tt.Issue) string {
	var builder strings.Builder
	for _, issue := range issues {
		formatter := getIssueFormatter(issue.Category)
		builder.WriteString(buildIssue(issue, formatter))
	}
	return builder.String()
}

// WriteJSON writes the issues grouped by file name.
func WriteJSON(w io.Writer, issues []tt.Issue) error {
	issuesByFile := make(map[string][]tt.Issue)
	for _, issue := range issues {
		issuesByFile[issue.Filename] = append(issuesByFile[issue.Filename], issue)
	}
	return json.NewEncoder(w).Encode(issuesByFile)
}

/***** Issue Formatter Builder *****/

type IssueData struct {
	Severity        string
	Category        string
	Rule            string
	Location        string
	LineLabel       string
	MaxLineNumWidth int
	Padding         string
	Instruction     string
	Message         string
	Suggestion      string
	Note            string
	Conditions      []string
	Paths           int
}

var funcMap = template.FuncMap{
	"header":     header,
	"snippet":    instructionSnippet,
	"message":    message,
	"conditions": conditions,
	"suggestion": suggestion,
	"note":       note,
}

func buildIssue(issue tt.Issue, formatter issueFormatter) string {
	label := ""
	if issue.Start.Line > 0 {
		label = strconv.Itoa(issue.Start.Line)
	}
	maxLineNumWidth := max(len(label), 1)

	data := IssueData{
		Severity:        issue.Severity.String(),
		Category:        issue.Category,
		Rule:            issue.Rule,
		Location:        issue.Start.String(),
		LineLabel:       label,
		MaxLineNumWidth: maxLineNumWidth,
		Padding:         strings.Repeat(" ", maxLineNumWidth+1),
		Instruction:     issue.Instruction,
		Message:         issue.Message,
		Suggestion:      issue.Suggestion,
		Note:            issue.Note,
		Conditions:      issue.Conditions,
		Paths:           issue.Paths,
	}

	tmpl := template.Must(template.New("issue").Funcs(funcMap).Parse(formatter.IssueTemplate()))

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Error formatting issue: %v", err)
	}
	return buf.String()
}

// utils functions used in the text templates

func header(rule, severity string, maxLineNumWidth int, location string) string {
	var endString string
	switch severity {
	case "ERROR":
		endString = errorStyle.Sprint("error: ")
	case "WARNING":
		endString = warningStyle.Sprint("warning: ")
	case "INFO":
		endString = infoStyle.Sprint("info: ")
	default:
		endString = strings.ToLower(severity) + ": "
	}
	endString += ruleStyle.Sprintf("%s\n", rule)

	endString += lineStyle.Sprintf("%s--> ", strings.Repeat(" ", maxLineNumWidth))
	endString += fileStyle.Sprintf("%s\n", location)
	return endString
}

// instructionSnippet prints the reported instruction under its source line
// number and underlines the opcode.
func instructionSnippet(instruction, label string, maxLineNumWidth int, padding string) string {
	if instruction == "" {
		return ""
	}

	endString := lineStyle.Sprintf("%s|\n", padding)
	endString += lineStyle.Sprintf("%*s | ", maxLineNumWidth, label)
	endString += instruction + "\n"

	start, length := opcodeSpan(instruction)
	endString += lineStyle.Sprintf("%s| ", padding)
	endString += strings.Repeat(" ", start)
	endString += messageStyle.Sprintf("%s\n", strings.Repeat("~", length))
	return endString
}

// opcodeSpan locates the mnemonic in "IL_xxxx: opcode operand".
func opcodeSpan(instruction string) (int, int) {
	start := 0
	if i := strings.Index(instruction, ": "); i >= 0 {
		start = i + 2
	}
	rest := instruction[start:]
	length := strings.IndexByte(rest, ' ')
	if length < 0 {
		length = len(rest)
	}
	return start, max(length, 1)
}

func message(msg, padding string) string {
	return lineStyle.Sprintf("%s= ", padding) + messageStyle.Sprintf("%s\n", msg)
}

func conditions(conds []string, paths int, padding string) string {
	if len(conds) == 0 {
		return ""
	}

	endString := conditionStyle.Sprintf("Conditions (%d %s):\n", paths, plural(paths, "path"))
	for _, c := range conds {
		endString += lineStyle.Sprintf("%s| ", padding) + c + "\n"
	}
	return endString
}

func suggestion(s string) string {
	if s == "" {
		return ""
	}
	return suggestionStyle.Sprint("Suggestion: ") + s + "\n"
}

func note(n string) string {
	if n == "" {
		return ""
	}
	return suggestionStyle.Sprint("Note: ") + lineStyle.Sprintf("%s\n", n)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
