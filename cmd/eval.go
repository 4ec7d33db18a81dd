package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/cilint/internal/cil"
	"github.com/gnolang/cilint/internal/interp"
	"github.com/gnolang/cilint/internal/memory"
)

var evalMethod string

var (
	methodStyle    = color.New(color.FgCyan, color.Bold)
	routineStyle   = color.New(color.FgHiBlue, color.Bold)
	conditionStyle = color.New(color.FgMagenta)
	returnStyle    = color.New(color.FgGreen)
)

var evalCmd = &cobra.Command{
	Use:   "eval [file]",
	Short: "Print the paths the interpreter finds through methods",
	Long: `Evaluates the methods of a listing and prints, for every path, the
expression trees it built and the branch conditions it passed.
Example) cilint eval --method Shop.OrderService::Checkout orders.cil.yaml`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		methods, err := loadMethods(args[0], evalMethod)
		if err != nil {
			logger.Error("Failed to load methods", zap.String("path", args[0]), zap.Error(err))
			os.Exit(1)
		}

		in := interp.New(interpOptions()...)
		for _, m := range methods {
			if err := evalMethodTo(os.Stdout, in, m); err != nil {
				logger.Error("Evaluation failed", zap.String("method", m.FullName()), zap.Error(err))
			}
		}
	},
}

func init() {
	evalCmd.Flags().StringVar(&evalMethod, "method", "", `Method to evaluate, "Type::Name" (default all)`)
}

// loadMethods reads a listing and returns the named method, or every
// method with a body when name is empty.
func loadMethods(path, name string) ([]*cil.MethodDef, error) {
	asm, err := cil.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return selectMethods(asm, name)
}

func selectMethods(asm *cil.Assembly, name string) ([]*cil.MethodDef, error) {
	if name != "" {
		m, err := asm.FindMethod(name)
		if err != nil {
			return nil, err
		}
		return []*cil.MethodDef{m}, nil
	}
	var out []*cil.MethodDef
	for _, m := range asm.Methods() {
		if m.Body() != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

func evalMethodTo(w io.Writer, in *interp.Interpreter, m cil.Method) error {
	routines, err := in.Evaluate(m)
	printRoutines(w, m, routines)
	return err
}

func printRoutines(w io.Writer, m cil.Method, routines []*memory.Routine) {
	methodStyle.Fprintf(w, "%s", m.FullName())
	fmt.Fprintf(w, ": %d %s\n", len(routines), pluralize(len(routines), "path"))

	for i, r := range routines {
		routineStyle.Fprintf(w, "  path %d\n", i+1)
		for _, c := range r.Conditions() {
			conditionStyle.Fprintf(w, "    if %s\n", c)
		}
		for _, e := range r.Expressions() {
			fmt.Fprintf(w, "    %s\n", e)
		}
		if ret := r.Returned(); ret != nil {
			returnStyle.Fprintf(w, "    return %s\n", ret)
		}
	}
}

func pluralize(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
