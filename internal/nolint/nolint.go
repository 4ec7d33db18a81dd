package nolint

import (
	"fmt"
	"strings"

	"github.com/gnolang/cilint/internal/cil"
)

const nolintPrefix = "nolint"

// Manager answers whether a rule is suppressed for a method. Suppressions
// come from "nolint" or "nolint:rule1,rule2" attributes on the method or
// on its declaring type.
type Manager struct {
	// scopes maps a method or type name to its suppressed rules.
	scopes map[string][]nolintScope
}

// nolintScope is one nolint attribute. An empty rule set suppresses every rule.
type nolintScope struct {
	rules map[string]struct{}
}

// ParseAttributes collects the nolint attributes of every type and method
// defined in the assembly.
func ParseAttributes(asm *cil.Assembly) *Manager {
	manager := Manager{
		scopes: make(map[string][]nolintScope),
	}
	for _, t := range asm.Types {
		manager.add(t.FullName(), t.Attributes())
		for _, m := range t.Methods {
			manager.add(m.FullName(), m.Attributes())
		}
	}
	return &manager
}

func (m *Manager) add(owner string, attrs []string) {
	for _, attr := range attrs {
		ns, err := parseAttribute(attr)
		if err != nil {
			// not a nolint attribute
			continue
		}
		m.scopes[owner] = append(m.scopes[owner], ns)
	}
}

// parseAttribute parses a single nolint attribute.
func parseAttribute(text string) (nolintScope, error) {
	var ns nolintScope
	text = strings.TrimSpace(text)

	rest, ok := strings.CutPrefix(text, nolintPrefix)
	if !ok {
		return ns, fmt.Errorf("invalid nolint attribute")
	}

	// Either a list of rules follows a colon, or nothing follows and the
	// attribute applies to all rules.
	if len(rest) > 0 && rest[0] != ':' {
		return ns, fmt.Errorf("invalid nolint attribute format")
	}
	if len(rest) > 0 {
		rest = strings.TrimSpace(rest[1:])
		if rest == "" {
			return ns, fmt.Errorf("invalid nolint attribute: no rules specified after colon")
		}
	}
	ns.rules = parseIgnoreRuleNames(rest)
	return ns, nil
}

// parseIgnoreRuleNames parses the rule list of a nolint attribute.
func parseIgnoreRuleNames(text string) map[string]struct{} {
	rulesMap := make(map[string]struct{})
	if text == "" {
		return rulesMap
	}
	for _, rule := range strings.Split(text, ",") {
		rule = strings.TrimSpace(rule)
		if rule != "" {
			rulesMap[rule] = struct{}{}
		}
	}
	return rulesMap
}

// IsNolint reports whether ruleName is suppressed for the method, either
// by the method's own attributes or by those of its declaring type.
func (m *Manager) IsNolint(method cil.Method, ruleName string) bool {
	if m == nil || method == nil {
		return false
	}
	owners := []string{method.FullName()}
	if t := method.DeclaringType(); t != nil {
		owners = append(owners, t.FullName())
	}
	for _, owner := range owners {
		for _, ns := range m.scopes[owner] {
			if len(ns.rules) == 0 {
				return true
			}
			if _, exists := ns.rules[ruleName]; exists {
				return true
			}
		}
	}
	return false
}
