package formatter

// QueryRootFormatter adds the branch conditions guarding the reported call.
type QueryRootFormatter struct{}

func (f *QueryRootFormatter) IssueTemplate() string {
	return `{{header .Rule .Severity .MaxLineNumWidth .Location}}
{{- snippet .Instruction .LineLabel .MaxLineNumWidth .Padding}}
{{- message .Message .Padding}}
{{- conditions .Conditions .Paths .Padding}}
{{- suggestion .Suggestion}}
{{- note .Note}}
`
}
