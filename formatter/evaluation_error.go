package formatter

// EvaluationErrorFormatter reports a method the interpreter gave up on.
type EvaluationErrorFormatter struct{}

func (f *EvaluationErrorFormatter) IssueTemplate() string {
	return `{{header .Rule .Severity .MaxLineNumWidth .Location}}
{{- snippet .Instruction .LineLabel .MaxLineNumWidth .Padding}}
{{- message .Message .Padding}}
{{- suggestion .Suggestion}}
`
}
