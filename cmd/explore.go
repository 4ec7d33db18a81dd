package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/cilint/formatter"
	"github.com/gnolang/cilint/internal"
	"github.com/gnolang/cilint/internal/cil"
	"github.com/gnolang/cilint/internal/interp"
)

const (
	explorePrompt = "cilint> "
	historyFile   = ".cilint_history"
)

const exploreHelp = `commands:
  methods                     list methods with a body
  eval <Type::Method>         print the paths through a method
  cfg <Type::Method>          print the control flow graph
  roots <Type::Method> <root>...
                              report calls to the given roots
  help                        show this message
  quit                        leave the shell
`

var exploreCmd = &cobra.Command{
	Use:   "explore [file]",
	Short: "Interactively evaluate the methods of a listing",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		asm, err := cil.LoadFile(args[0])
		if err != nil {
			logger.Error("Failed to load listing", zap.String("path", args[0]), zap.Error(err))
			os.Exit(1)
		}
		runShell(newSession(args[0], asm, interp.New(interpOptions()...)))
	},
}

type session struct {
	filename string
	asm      *cil.Assembly
	interp   *interp.Interpreter
}

func newSession(filename string, asm *cil.Assembly, in *interp.Interpreter) *session {
	return &session{filename: filename, asm: asm, interp: in}
}

func runShell(s *session) {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(s.complete)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Printf("%s: %d methods, type help for commands\n", s.filename, len(s.asm.Methods()))
	for {
		line, err := ln.Prompt(explorePrompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return
		}
		if err != nil {
			logger.Error("Failed to read input", zap.Error(err))
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)
		if !s.execute(os.Stdout, line) {
			return
		}
	}
}

// execute runs one shell command and reports whether the shell goes on.
func (s *session) execute(w io.Writer, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	switch cmd, args := fields[0], fields[1:]; cmd {
	case "quit", "exit":
		return false
	case "help":
		fmt.Fprint(w, exploreHelp)
	case "methods":
		for _, m := range s.asm.Methods() {
			if m.Body() != nil {
				fmt.Fprintln(w, m.FullName())
			}
		}
	case "eval":
		s.withMethod(w, args, 1, func(m *cil.MethodDef) error {
			return evalMethodTo(w, s.interp, m)
		})
	case "cfg":
		s.withMethod(w, args, 1, func(m *cil.MethodDef) error {
			writeDot(w, m)
			return nil
		})
	case "roots":
		s.withMethod(w, args, 2, func(m *cil.MethodDef) error {
			return s.roots(w, m, args[1:])
		})
	default:
		fmt.Fprintf(w, "unknown command %q, type help for commands\n", cmd)
	}
	return true
}

func (s *session) withMethod(w io.Writer, args []string, minArgs int, fn func(*cil.MethodDef) error) {
	if len(args) < minArgs {
		fmt.Fprint(w, exploreHelp)
		return
	}
	m, err := s.asm.FindMethod(args[0])
	if err == nil && m.Body() == nil {
		err = fmt.Errorf("%s has no body", m.FullName())
	}
	if err == nil {
		err = fn(m)
	}
	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
	}
}

func (s *session) roots(w io.Writer, m *cil.MethodDef, roots []string) error {
	routines, err := s.interp.Evaluate(m)
	if err != nil {
		return err
	}
	rule := internal.NewQueryRootRule("roots", roots...)
	issues, err := rule.Check(s.filename, m, routines)
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		fmt.Fprintln(w, "no calls found")
		return nil
	}
	fmt.Fprint(w, formatter.GenerateFormattedIssue(issues))
	return nil
}

// complete offers command names, then method names.
func (s *session) complete(line string) []string {
	var out []string
	if !strings.Contains(line, " ") {
		for _, c := range []string{"cfg", "eval", "exit", "help", "methods", "quit", "roots"} {
			if strings.HasPrefix(c, line) {
				out = append(out, c)
			}
		}
		return out
	}
	cmd, prefix, _ := strings.Cut(line, " ")
	for _, m := range s.asm.Methods() {
		if m.Body() != nil && strings.HasPrefix(m.FullName(), prefix) {
			out = append(out, cmd+" "+m.FullName())
		}
	}
	return out
}
