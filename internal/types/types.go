package types

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Severity is how loudly an issue is reported.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityOff
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "ERROR"
	case SeverityWarning:
		return "WARNING"
	case SeverityInfo:
		return "INFO"
	case SeverityOff:
		return "OFF"
	}
	return "UNKNOWN"
}

// ParseSeverity accepts the lower case names used in configuration files.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "error":
		return SeverityError, nil
	case "warning":
		return SeverityWarning, nil
	case "info":
		return SeverityInfo, nil
	case "off":
		return SeverityOff, nil
	}
	return SeverityError, fmt.Errorf("unknown severity %q", s)
}

func (s Severity) MarshalYAML() (any, error) {
	return strings.ToLower(s.String()), nil
}

func (s *Severity) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseSeverity(node.Value)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(s.String())), nil
}

// Location points at one instruction of a listing file.
type Location struct {
	Filename string
	Method   string
	Offset   int
	// Line is the source line of the closest sequence point, 0 if unknown.
	Line int
}

func (l Location) String() string {
	s := fmt.Sprintf("%s:%s IL_%04x", l.Filename, l.Method, l.Offset)
	if l.Line > 0 {
		s += fmt.Sprintf(" (line %d)", l.Line)
	}
	return s
}

// Issue represents a lint issue found in a listing.
type Issue struct {
	Rule        string
	Category    string
	Filename    string
	Message     string
	Suggestion  string
	Note        string
	Instruction string
	Conditions  []string
	Paths       int
	Start       Location
	Severity    Severity
}

// ConfigRule is the per-rule section of the configuration file.
type ConfigRule struct {
	Severity     Severity `yaml:"severity"`
	Message      string   `yaml:"message,omitempty"`
	Roots        []string `yaml:"roots,omitempty"`
	WithinBranch bool     `yaml:"within-branch,omitempty"`
	FollowLambda bool     `yaml:"follow-lambdas,omitempty"`
}
