package internal

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gnolang/cilint/internal/ast"
	"github.com/gnolang/cilint/internal/cil"
	"github.com/gnolang/cilint/internal/interp"
	"github.com/gnolang/cilint/internal/memory"
	"github.com/gnolang/cilint/internal/pattern"
	tt "github.com/gnolang/cilint/internal/types"
)

// LintRule defines the interface for all lint rules.
type LintRule interface {
	// Check inspects the completed routines of one method.
	Check(filename string, m cil.Method, routines []*memory.Routine) ([]tt.Issue, error)

	// Name returns the name of the lint rule.
	Name() string

	Severity() tt.Severity
	SetSeverity(tt.Severity)
}

// ErrorRule is implemented by rules that report methods the interpreter
// could not evaluate.
type ErrorRule interface {
	LintRule
	CheckError(filename string, m cil.Method, err error) []tt.Issue
}

const (
	QueryRootRuleName       = "query-root"
	EvaluationErrorRuleName = "evaluation-error"
)

// QueryRootRule reports calls to configured root methods. A root is
// reported once per call site, however many paths reach it. With
// within-branch set, only sites that some path of their method misses are
// reported. The conditions of an issue are those of the paths reaching it.
type QueryRootRule struct {
	name          string
	message       string
	severity      tt.Severity
	roots         []string
	query         *pattern.CallMapNode
	withinBranch  bool
	followLambdas bool
	interp        *interp.Interpreter
}

// NewQueryRootRule builds a rule matching calls to the given "Type::Method"
// names.
func NewQueryRootRule(name string, roots ...string) *QueryRootRule {
	return &QueryRootRule{
		name:     name,
		severity: tt.SeverityWarning,
		roots:    roots,
		query:    pattern.CallMap(roots...),
		interp:   interp.New(),
	}
}

// newQueryRootRuleFromConfig applies a configuration section.
func newQueryRootRuleFromConfig(name string, cfg tt.ConfigRule, in *interp.Interpreter) *QueryRootRule {
	r := NewQueryRootRule(name, cfg.Roots...)
	r.severity = cfg.Severity
	r.message = cfg.Message
	r.withinBranch = cfg.WithinBranch
	r.followLambdas = cfg.FollowLambda
	if in != nil {
		r.interp = in
	}
	return r
}

func (r *QueryRootRule) Name() string              { return r.name }
func (r *QueryRootRule) Severity() tt.Severity     { return r.severity }
func (r *QueryRootRule) SetSeverity(s tt.Severity) { r.severity = s }
func (r *QueryRootRule) Roots() []string           { return r.roots }
func (r *QueryRootRule) SetWithinBranch(v bool)    { r.withinBranch = v }
func (r *QueryRootRule) SetFollowLambdas(v bool)   { r.followLambdas = v }
func (r *QueryRootRule) SetMessage(message string) { r.message = message }

// rootSite aggregates one call site over the paths that reach it.
type rootSite struct {
	call       *ast.Call
	paths      int
	total      int
	conditions map[string]struct{}
}

func (r *QueryRootRule) Check(filename string, m cil.Method, routines []*memory.Routine) ([]tt.Issue, error) {
	sites := make(map[ast.PointKey]*rootSite)
	var order []ast.PointKey
	visited := map[cil.Method]bool{m: true}

	var collect func(routines []*memory.Routine) error
	collect = func(routines []*memory.Routine) error {
		for _, rt := range routines {
			seen := make(map[ast.PointKey]bool)
			exprs := rt.Expressions()
			for _, call := range pattern.QueryRoots(exprs, r.query) {
				key := call.Point.Key()
				site, ok := sites[key]
				if !ok {
					site = &rootSite{call: call, total: len(routines), conditions: make(map[string]struct{})}
					sites[key] = site
					order = append(order, key)
				}
				if !seen[key] {
					seen[key] = true
					site.paths++
				}
				for _, c := range rt.Conditions() {
					site.conditions[c.String()] = struct{}{}
				}
			}
			if !r.followLambdas {
				continue
			}
			for _, ftn := range pattern.FindFtns(exprs) {
				if ftn.Method == nil || visited[ftn.Method] || ftn.Method.Body() == nil {
					continue
				}
				visited[ftn.Method] = true
				inner, err := r.interp.Evaluate(ftn.Method)
				if err != nil {
					return fmt.Errorf("evaluating %s: %w", ftn.Method.FullName(), err)
				}
				if err := collect(inner); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := collect(routines); err != nil {
		return nil, err
	}

	var issues []tt.Issue
	for _, key := range order {
		site := sites[key]
		if r.withinBranch && site.paths == site.total {
			continue
		}
		issues = append(issues, r.issue(filename, site))
	}
	return issues, nil
}

func (r *QueryRootRule) issue(filename string, site *rootSite) tt.Issue {
	call := site.call
	message := r.message
	if message == "" {
		message = fmt.Sprintf("call to %s", call.QualifiedName())
	}
	conds := make([]string, 0, len(site.conditions))
	for c := range site.conditions {
		conds = append(conds, c)
	}
	sort.Strings(conds)

	issue := tt.Issue{
		Rule:       r.name,
		Category:   "query",
		Filename:   filename,
		Message:    message,
		Note:       fmt.Sprintf("%s reached on %d of %d paths", call.String(), site.paths, site.total),
		Conditions: conds,
		Paths:      site.paths,
		Start:      location(filename, call.Point),
		Severity:   r.severity,
	}
	if call.Point.Method != nil && call.Point.Method.Body() != nil {
		if ins := call.Point.Method.Body().At(call.Point.Offset); ins != nil {
			issue.Instruction = ins.String()
		}
	}
	return issue
}

// EvaluationErrorRule reports methods whose evaluation failed, so that one
// malformed body does not abort a whole run.
type EvaluationErrorRule struct {
	severity tt.Severity
}

func NewEvaluationErrorRule() LintRule {
	return &EvaluationErrorRule{severity: tt.SeverityError}
}

func (r *EvaluationErrorRule) Name() string              { return EvaluationErrorRuleName }
func (r *EvaluationErrorRule) Severity() tt.Severity     { return r.severity }
func (r *EvaluationErrorRule) SetSeverity(s tt.Severity) { r.severity = s }

func (r *EvaluationErrorRule) Check(string, cil.Method, []*memory.Routine) ([]tt.Issue, error) {
	return nil, nil
}

func (r *EvaluationErrorRule) CheckError(filename string, m cil.Method, err error) []tt.Issue {
	offset := 0
	var (
		unsupported *interp.UnsupportedInstructionError
		underflow   *interp.StackUnderflowError
		operand     *interp.InvalidOperandError
	)
	switch {
	case errors.As(err, &unsupported):
		offset = unsupported.Offset
	case errors.As(err, &underflow):
		offset = underflow.Offset
	case errors.As(err, &operand):
		offset = operand.Offset
	}

	issue := tt.Issue{
		Rule:     EvaluationErrorRuleName,
		Category: "interpreter",
		Filename: filename,
		Message:  err.Error(),
		Start:    location(filename, ast.Point{Method: m, Offset: offset}),
		Severity: r.severity,
	}
	if errors.Is(err, interp.ErrStepLimit) {
		issue.Suggestion = "raise the step limit with --max-steps"
	}
	if body := m.Body(); body != nil {
		if ins := body.At(offset); ins != nil {
			issue.Instruction = ins.String()
			issue.Start.Line, _ = body.LineAt(offset)
		}
	}
	return []tt.Issue{issue}
}

func location(filename string, p ast.Point) tt.Location {
	loc := tt.Location{Filename: filename, Offset: p.Offset, Line: p.Line}
	if p.Method != nil {
		loc.Method = p.Method.FullName()
	}
	return loc
}

// formatRoots renders a root list for log messages.
func formatRoots(roots []string) string {
	return "[" + strings.Join(roots, ", ") + "]"
}
