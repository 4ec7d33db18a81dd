package internal

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/gnolang/cilint/internal/cil"
	"github.com/gnolang/cilint/internal/interp"
	"github.com/gnolang/cilint/internal/memory"
	"github.com/gnolang/cilint/internal/nolint"
	"github.com/gnolang/cilint/internal/trie"
	tt "github.com/gnolang/cilint/internal/types"
)

// Engine manages the linting process.
type Engine struct {
	logger            *zap.Logger
	interp            *interp.Interpreter
	ignoredRules      map[string]bool
	ignoredNamespaces *trie.Trie
	rules             map[string]LintRule
	cache             *Cache

	// watch mode
	watcher    *fsnotify.Watcher
	watchDirs  []string
	isWatching bool
	report     func(filename string, issues []tt.Issue)
	watchMu    sync.Mutex
}

// NewEngine creates a new lint engine. Every configuration section with
// roots becomes a query-root rule named after its key; other sections
// adjust the severity of a built-in rule.
func NewEngine(logger *zap.Logger, rules map[string]tt.ConfigRule, opts ...interp.Option) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := &Engine{
		logger:            logger,
		interp:            interp.New(append([]interp.Option{interp.WithLogger(logger)}, opts...)...),
		ignoredRules:      make(map[string]bool),
		ignoredNamespaces: trie.New(),
	}
	if err := engine.applyRules(rules); err != nil {
		return nil, err
	}
	return engine, nil
}

type ruleConstructor func() LintRule

type ruleMap map[string]ruleConstructor

// allRuleConstructors holds the rules that need no configuration.
var allRuleConstructors = ruleMap{
	EvaluationErrorRuleName: NewEvaluationErrorRule,
}

func (e *Engine) applyRules(rules map[string]tt.ConfigRule) error {
	e.rules = make(map[string]LintRule)
	e.registerDefaultRules()

	names := make([]string, 0, len(rules))
	for key := range rules {
		names = append(names, key)
	}
	sort.Strings(names)

	for _, key := range names {
		rule := rules[key]
		if len(rule.Roots) > 0 {
			if _, builtin := allRuleConstructors[key]; builtin {
				return fmt.Errorf("rule %q: roots cannot be set on a built-in rule", key)
			}
			r := newQueryRootRuleFromConfig(key, rule, e.interp)
			e.rules[key] = r
			e.logger.Debug("registered query-root rule",
				zap.String("rule", key),
				zap.String("roots", formatRoots(rule.Roots)))
			if rule.Severity == tt.SeverityOff {
				e.IgnoreRule(key)
			}
			continue
		}

		r := e.findRule(key)
		if r == nil {
			newRuleCstr := allRuleConstructors[key]
			if newRuleCstr == nil {
				e.logger.Warn("unknown rule in configuration", zap.String("rule", key))
				continue
			}
			r = newRuleCstr()
			e.rules[key] = r
		}
		if rule.Severity == tt.SeverityOff {
			e.IgnoreRule(key)
		}
		r.SetSeverity(rule.Severity)
	}
	return nil
}

func (e *Engine) registerDefaultRules() {
	for key, newRuleCstr := range allRuleConstructors {
		newRule := newRuleCstr()
		if newRule.Severity() != tt.SeverityOff {
			e.rules[key] = newRule
		}
	}
}

func (e *Engine) findRule(name string) LintRule {
	if rule, ok := e.rules[name]; ok {
		return rule
	}
	return nil
}

// AddRule registers a rule, replacing any rule with the same name.
func (e *Engine) AddRule(rule LintRule) {
	e.rules[rule.Name()] = rule
}

// Rules returns the names of the registered rules, sorted.
func (e *Engine) Rules() []string {
	names := make([]string, 0, len(e.rules))
	for name := range e.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Engine) IgnoreRule(rule string) {
	e.ignoredRules[rule] = true
}

// IgnoreNamespace skips every method declared under the dotted namespace.
func (e *Engine) IgnoreNamespace(namespace string) {
	e.ignoredNamespaces.InsertNamespace(namespace)
	e.logger.Debug("ignoring namespace",
		zap.String("namespace", namespace),
		zap.Int("count", e.ignoredNamespaces.Len()),
		zap.String("ignored", e.ignoredNamespaces.DebugString()))
}

// SetCache enables result caching per listing file.
func (e *Engine) SetCache(c *Cache) {
	e.cache = c
}

// Interpreter returns the interpreter the engine evaluates methods with.
func (e *Engine) Interpreter() *interp.Interpreter {
	return e.interp
}

// Run loads a listing file and applies all lint rules to its methods.
func (e *Engine) Run(filename string) ([]tt.Issue, error) {
	if e.cache != nil {
		if issues, ok := e.cache.Get(filename); ok {
			e.logger.Debug("cache hit", zap.String("file", filename))
			return issues, nil
		}
	}

	asm, err := cil.LoadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error loading listing: %w", err)
	}
	issues, err := e.RunAssembly(filename, asm)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.Set(filename, issues); err != nil {
			e.logger.Warn("failed to cache issues", zap.String("file", filename), zap.Error(err))
		}
	}
	return issues, nil
}

// RunSource applies all lint rules to an in-memory listing.
func (e *Engine) RunSource(source []byte) ([]tt.Issue, error) {
	asm, err := cil.Load(source)
	if err != nil {
		return nil, fmt.Errorf("error parsing content: %w", err)
	}
	return e.RunAssembly("", asm)
}

// RunAssembly evaluates every method of asm with a body and applies the
// enabled rules to the result. Issues are sorted by method and offset.
func (e *Engine) RunAssembly(filename string, asm *cil.Assembly) ([]tt.Issue, error) {
	nolintMgr := nolint.ParseAttributes(asm)

	var allIssues []tt.Issue
	for _, m := range asm.Methods() {
		if m.Body() == nil {
			continue
		}
		if t := m.DeclaringType(); t != nil && e.ignoredNamespaces.Covers(t.FullName()) {
			e.logger.Debug("skipping ignored namespace", zap.String("method", m.FullName()))
			continue
		}

		routines, err := e.interp.Evaluate(m)
		if err != nil {
			e.logger.Warn("evaluation failed",
				zap.String("file", filename),
				zap.String("method", m.FullName()),
				zap.Error(err))
			allIssues = append(allIssues, e.filterNolintIssues(nolintMgr, m, e.reportError(filename, m, err))...)
			continue
		}

		issues := e.checkMethod(filename, m, routines)
		allIssues = append(allIssues, e.filterNolintIssues(nolintMgr, m, issues)...)
	}

	sortIssues(allIssues)
	return allIssues, nil
}

func (e *Engine) reportError(filename string, m cil.Method, err error) []tt.Issue {
	var out []tt.Issue
	for _, rule := range e.rules {
		if e.ignoredRules[rule.Name()] {
			continue
		}
		if er, ok := rule.(ErrorRule); ok {
			out = append(out, er.CheckError(filename, m, err)...)
		}
	}
	return out
}

func (e *Engine) checkMethod(filename string, m cil.Method, routines []*memory.Routine) []tt.Issue {
	var wg sync.WaitGroup
	var mu sync.Mutex

	var allIssues []tt.Issue
	for _, rule := range e.rules {
		wg.Add(1)
		go func(r LintRule) {
			defer wg.Done()
			if e.ignoredRules[r.Name()] {
				return
			}
			issues, err := r.Check(filename, m, routines)
			if err != nil {
				e.logger.Warn("rule failed",
					zap.String("rule", r.Name()),
					zap.String("method", m.FullName()),
					zap.Error(err))
				return
			}

			mu.Lock()
			allIssues = append(allIssues, issues...)
			mu.Unlock()
		}(rule)
	}
	wg.Wait()
	return allIssues
}

// filterNolintIssues drops issues suppressed by nolint attributes.
func (e *Engine) filterNolintIssues(mgr *nolint.Manager, m cil.Method, issues []tt.Issue) []tt.Issue {
	if mgr == nil {
		return issues
	}
	filtered := make([]tt.Issue, 0, len(issues))
	for _, issue := range issues {
		if !mgr.IsNolint(m, issue.Rule) {
			filtered = append(filtered, issue)
		}
	}
	return filtered
}

func sortIssues(issues []tt.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i].Start, issues[j].Start
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		if a.Method != b.Method {
			return a.Method < b.Method
		}
		if a.Offset != b.Offset {
			return a.Offset < b.Offset
		}
		return issues[i].Rule < issues[j].Rule
	})
}

// IsListing reports whether path names a listing file.
func IsListing(path string) bool {
	return strings.HasSuffix(path, cil.ListingExtension)
}
