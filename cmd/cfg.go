package cmd

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/gflow/internal/analysis/cfg"
	"github.com/gnolang/gflow/optimize"
)

// variable for flags
var (
	funcName string
	cfgPass  string
	output   string
)

var cfgCmd = &cobra.Command{
	Use:   "cfg [paths...]",
	Short: "Print or render the control flow graph of a function",
	Long: `Outputs the Control Flow Graph (CFG) of the specified function or generates a GraphViz file.
With --pass, every edge is labeled with the assumption that pass computes for it.
Example) gflow cfg --func MyFunction --pass liveness -o cfg.svg main.go`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide file paths")
			os.Exit(1)
		}
		// timeout is a global variable declared in root.go
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		engine, err := optimize.New(configPath(), logger)
		if err != nil {
			logger.Fatal("Failed to initialize optimizer", zap.Error(err))
		}
		if err := runCFGAnalysis(ctx, cmd.OutOrStdout(), engine, args, funcName, cfgPass, output); err != nil {
			logger.Error("Failed to produce CFG", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	cfgCmd.Flags().StringVar(&funcName, "func", "", "Function name for CFG analysis")
	cfgCmd.Flags().StringVar(&cfgPass, "pass", "", "Label edges with the facts of this pass")
	cfgCmd.Flags().StringVarP(&output, "output", "o", "", "Output path for rendered GraphViz file")
}

func runCFGAnalysis(ctx context.Context, w io.Writer, engine *optimize.Engine, paths []string, funcName, pass, output string) error {
	for _, path := range paths {
		fset, g, edgeLabel, err := loadGraph(engine, path, funcName, pass)
		if errors.Is(err, optimize.ErrFuncNotFound) {
			continue
		}
		if err != nil {
			return err
		}

		var buf strings.Builder
		g.PrintDot(&buf, fset, edgeLabel)
		if output == "" {
			fmt.Fprintf(w, "CFG for function %s in file %s:\n%s\n", funcName, path, buf.String())
			return nil
		}
		if err := cfg.RenderToGraphVizFile(ctx, []byte(buf.String()), output); err != nil {
			return fmt.Errorf("failed to render CFG to GraphViz file: %w", err)
		}
		fmt.Fprintf(w, "GraphViz file created: %s\n", output)
		return nil
	}
	return fmt.Errorf("%w: %s", optimize.ErrFuncNotFound, funcName)
}

func loadGraph(engine *optimize.Engine, path, funcName, pass string) (*token.FileSet, *cfg.Graph, func(cfg.EdgeID) string, error) {
	if pass == "" {
		fset, g, err := optimize.Graph(path, funcName)
		return fset, g, nil, err
	}
	facts, err := engine.Facts(path, funcName, pass)
	if err != nil {
		return nil, nil, nil, err
	}
	return facts.Fset, facts.Graph, func(e cfg.EdgeID) string { return facts.Values[e] }, nil
}
