package formatter

type GeneralIssueFormatter struct{}

func (f *GeneralIssueFormatter) IssueTemplate() string {
	return `{{header .Rule .Severity .MaxLineNumWidth .Location}}
{{- snippet .Instruction .LineLabel .MaxLineNumWidth .Padding}}
{{- message .Message .Padding}}
{{- suggestion .Suggestion}}
{{- note .Note}}
`
}
