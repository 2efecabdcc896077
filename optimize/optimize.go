package optimize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/gnolang/gflow/internal/optimizer"
	tt "github.com/gnolang/gflow/internal/types"
)

// OptimizeEngine optimizes Go sources.
type OptimizeEngine interface {
	Run(filePath string) (tt.FileResult, error)
	RunSource(source []byte) (tt.FileResult, error)
}

// Engine runs the optimizer over whole files.
type Engine struct {
	optimizer *optimizer.Optimizer
}

var _ OptimizeEngine = (*Engine)(nil)

// New builds an engine from the configuration file at configurationPath.
// An empty path uses DefaultConfig.
func New(configurationPath string, logger *zap.Logger) (*Engine, error) {
	config := DefaultConfig()
	if configurationPath != "" {
		var err error
		config, err = ParseConfigurationFile(configurationPath)
		if err != nil {
			return nil, err
		}
	}
	return NewWithConfig(config, logger)
}

// NewWithConfig builds an engine from config.
func NewWithConfig(config Config, logger *zap.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Engine{optimizer: optimizer.New(config.optimizerConfig(), logger)}, nil
}

// Run optimizes the file at filename. The file itself is left untouched.
func (e *Engine) Run(filename string) (tt.FileResult, error) {
	source, err := os.ReadFile(filename)
	if err != nil {
		return tt.FileResult{Filename: filename}, err
	}
	return e.run(filename, source)
}

// RunSource optimizes source as if it were an unnamed file.
func (e *Engine) RunSource(source []byte) (tt.FileResult, error) {
	return e.run("", source)
}

func (e *Engine) run(filename string, source []byte) (tt.FileResult, error) {
	res := tt.FileResult{Filename: filename, Source: source}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, source, parser.ParseComments)
	if err != nil {
		return res, fmt.Errorf("error parsing %s: %w", displayName(filename), err)
	}

	funcs, err := e.optimizer.OptimizeFile(fset, file)
	res.Funcs = funcs
	if err != nil {
		return res, fmt.Errorf("error optimizing %s: %w", displayName(filename), err)
	}
	if !res.Changed() {
		return res, nil
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return res, fmt.Errorf("error printing %s: %w", displayName(filename), err)
	}
	res.Output = buf.Bytes()
	return res, nil
}

func displayName(filename string) string {
	if filename == "" {
		return "source"
	}
	return filename
}

// WriteResult replaces the file res was read from with its optimized
// output. Results without output are ignored.
func WriteResult(res tt.FileResult) error {
	if res.Output == nil || res.Filename == "" {
		return nil
	}
	info, err := os.Stat(res.Filename)
	if err != nil {
		return err
	}
	return os.WriteFile(res.Filename, res.Output, info.Mode().Perm())
}

func ProcessSources(
	ctx context.Context,
	logger *zap.Logger,
	engine OptimizeEngine,
	sources [][]byte,
	processor func(OptimizeEngine, []byte) (tt.FileResult, error),
) ([]tt.FileResult, error) {
	results := make([]tt.FileResult, 0, len(sources))
	for i, source := range sources {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := processor(engine, source)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing source", zap.Int("source", i), zap.Error(err))
			}
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine OptimizeEngine,
	paths []string,
	processor func(OptimizeEngine, string) (tt.FileResult, error),
) ([]tt.FileResult, error) {
	var all []tt.FileResult
	var errs []error
	for _, path := range paths {
		results, err := ProcessPath(ctx, logger, engine, path, processor)
		all = append(all, results...)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			}
			if ctx.Err() != nil {
				return all, err
			}
			errs = append(errs, err)
		}
	}
	return all, errors.Join(errs...)
}

// ProcessPath processes a file or every Go file below a directory. Files
// that fail do not stop the others; their errors are joined. Directory
// results are sorted by filename.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine OptimizeEngine,
	path string,
	processor func(OptimizeEngine, string) (tt.FileResult, error),
) ([]tt.FileResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}

	if !info.IsDir() {
		if !hasDesiredExtension(path) {
			return []tt.FileResult{}, nil
		}
		res, err := processor(engine, path)
		if err != nil {
			return []tt.FileResult{}, err
		}
		return []tt.FileResult{res}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(filePath string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && hasDesiredExtension(filePath) {
			files = append(files, filePath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking %s: %w", path, err)
	}

	type outcome struct {
		res tt.FileResult
		err error
	}
	outcomes := make(chan outcome, len(files))

	// limit the number of workers
	sem := make(chan struct{}, runtime.NumCPU())

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(path),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	started := 0
	var cancelled error
	for _, filePath := range files {
		if cancelled = ctx.Err(); cancelled != nil {
			break
		}
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
		case sem <- struct{}{}:
			started++
			go func(fp string) {
				defer func() { <-sem }()
				res, err := processor(engine, fp)
				if err != nil && logger != nil {
					logger.Error("Error processing file", zap.String("file", fp), zap.Error(err))
				}
				outcomes <- outcome{res: res, err: err}
				_ = bar.Add(1)
			}(filePath)
		}
		if cancelled != nil {
			break
		}
	}

	results := []tt.FileResult{}
	var errs []error
	for range started {
		o := <-outcomes
		if o.err != nil {
			errs = append(errs, o.err)
			continue
		}
		results = append(results, o.res)
	}
	_ = bar.Finish()

	sort.Slice(results, func(i, j int) bool { return results[i].Filename < results[j].Filename })

	if cancelled != nil {
		return results, cancelled
	}
	return results, errors.Join(errs...)
}

func ProcessFile(engine OptimizeEngine, filePath string) (tt.FileResult, error) {
	return engine.Run(filePath)
}

func ProcessSource(engine OptimizeEngine, source []byte) (tt.FileResult, error) {
	return engine.RunSource(source)
}

func hasDesiredExtension(path string) bool {
	return filepath.Ext(path) == ".go"
}
