package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/gflow/internal/analysis/cfg"
	"github.com/gnolang/gflow/optimize"
)

const bottom = "⊥"

var factsPass string

var (
	nodeStyle   = color.New(color.FgCyan, color.Bold)
	edgeStyle   = color.New(color.FgHiBlue)
	valueStyle  = color.New(color.FgGreen)
	bottomStyle = color.New(color.FgRed)
)

var factsCmd = &cobra.Command{
	Use:   "facts [paths...]",
	Short: "Print the fixed point of a pass over a function",
	Long: `Solves one pass over the named function without rewriting it and prints
the assumption stored on every edge of its control flow graph.
Example) gflow facts --func compute --pass constprop main.go`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide file paths")
			os.Exit(1)
		}
		engine, err := optimize.New(configPath(), logger)
		if err != nil {
			logger.Fatal("Failed to initialize optimizer", zap.Error(err))
		}
		if err := runFacts(cmd.OutOrStdout(), engine, args, funcName, factsPass); err != nil {
			logger.Error("Error computing facts", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	factsCmd.Flags().StringVar(&funcName, "func", "", "Function to analyze")
	factsCmd.Flags().StringVar(&factsPass, "pass", "constprop", "Pass to solve: constprop, liveness or unreachable")
}

// runFacts prints the facts of the first function named funcName found in
// paths.
func runFacts(w io.Writer, engine *optimize.Engine, paths []string, funcName, pass string) error {
	for _, path := range paths {
		facts, err := engine.Facts(path, funcName, pass)
		if errors.Is(err, optimize.ErrFuncNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s (%s)\n", nodeStyle.Sprint(pass), funcName, path)
		printFacts(w, facts)
		return nil
	}
	return fmt.Errorf("%w: %s", optimize.ErrFuncNotFound, funcName)
}

func printFacts(w io.Writer, facts *optimize.FuncFacts) {
	g := facts.Graph
	value := func(e cfg.EdgeID) string {
		v := facts.Values[e]
		if v == bottom {
			return bottomStyle.Sprint(v)
		}
		return valueStyle.Sprint(v)
	}
	edge := func(dir string, e cfg.EdgeID) string {
		s := fmt.Sprintf("%s e%d", dir, e)
		if role := g.Role(e).String(); role != "" {
			s += " " + role
		}
		return edgeStyle.Sprint(s)
	}

	for _, n := range g.Nodes() {
		fmt.Fprintf(w, "%s %s\n", nodeStyle.Sprintf("n%d", n), g.Label(n, facts.Fset))
		for _, e := range g.InEdges(n) {
			fmt.Fprintf(w, "\t%s: %s\n", edge("in", e), value(e))
		}
		for _, e := range g.OutEdges(n) {
			fmt.Fprintf(w, "\t%s: %s\n", edge("out", e), value(e))
		}
	}
}
