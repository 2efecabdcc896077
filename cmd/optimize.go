package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/gflow/formatter"
	tt "github.com/gnolang/gflow/internal/types"
	"github.com/gnolang/gflow/optimize"
)

var (
	writeChanges bool
	jsonOutput   bool
	outPath      string
)

var (
	skipStyle  = color.New(color.FgHiBlack)
	writeStyle = color.New(color.FgGreen, color.Bold)
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize [paths...]",
	Short: "Optimize the functions of Go files",
	Long: `Runs unreachable code removal, constant propagation and dead store elimination
over every function until nothing changes, then reports the rewrites.
Example) gflow optimize --write ./...`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide file or directory paths")
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		engine, err := optimize.New(configPath(), logger)
		if err != nil {
			logger.Fatal("Failed to initialize optimizer", zap.Error(err))
		}

		opts := outputOptions{write: writeChanges, json: jsonOutput, path: outPath}
		if err := runOptimize(ctx, logger, engine, trimPatterns(args), opts, cmd.OutOrStdout()); err != nil {
			logger.Error("Error processing files", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	optimizeCmd.Flags().BoolVarP(&writeChanges, "write", "w", false, "Write the optimized sources back to their files")
	optimizeCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results in JSON format")
	optimizeCmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (when using JSON)")
}

type outputOptions struct {
	write bool
	json  bool
	path  string
}

// trimPatterns turns go-style "dir/..." arguments into directories, which
// are walked recursively anyway.
func trimPatterns(args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		out = append(out, strings.TrimSuffix(arg, "/..."))
	}
	return out
}

// runOptimize processes paths and reports what changed. Results are
// printed even when some files fail; the error is returned afterwards.
func runOptimize(ctx context.Context, logger *zap.Logger, engine optimize.OptimizeEngine, paths []string, opts outputOptions, w io.Writer) error {
	results, processErr := optimize.ProcessFiles(ctx, logger, engine, paths, optimize.ProcessFile)

	sort.Slice(results, func(i, j int) bool { return results[i].Filename < results[j].Filename })

	if err := printResults(w, results, opts); err != nil {
		return err
	}

	if opts.write {
		for _, res := range results {
			if !res.Changed() {
				continue
			}
			if err := optimize.WriteResult(res); err != nil {
				return fmt.Errorf("error writing %s: %w", res.Filename, err)
			}
			if !opts.json {
				writeStyle.Fprintf(w, "rewrote %s\n", res.Filename)
			}
		}
	}
	return processErr
}

func printResults(w io.Writer, results []tt.FileResult, opts outputOptions) error {
	if opts.json {
		d, err := json.Marshal(results)
		if err != nil {
			return fmt.Errorf("error marshalling results to JSON: %w", err)
		}
		if opts.path == "" {
			_, err = fmt.Fprintln(w, string(d))
			return err
		}
		return os.WriteFile(opts.path, d, 0o644)
	}

	// text output
	for _, res := range results {
		for _, fn := range res.Funcs {
			if fn.Skipped != "" {
				skipStyle.Fprintf(w, "skip: %s %s (%s)\n", res.Filename, fn.Func, fn.Skipped)
			}
		}
		if !res.Changed() {
			continue
		}
		fmt.Fprint(w, formatter.GenerateFormattedChanges(res.Changes(), formatter.SplitLines(res.Source)))
	}
	return nil
}
