package lint

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gnolang/cilint/internal"
	"github.com/gnolang/cilint/internal/cil"
	"github.com/gnolang/cilint/internal/interp"
	tt "github.com/gnolang/cilint/internal/types"
	"github.com/gnolang/cilint/scanner"
)

// DefaultConfigFile is the configuration file looked up when none is given.
const DefaultConfigFile = ".cilint.yaml"

type LintEngine interface {
	Run(filePath string) ([]tt.Issue, error)
	RunSource(source []byte) ([]tt.Issue, error)
	IgnoreRule(rule string)
	IgnoreNamespace(namespace string)
}

// Config represents the configuration file.
type Config struct {
	Name             string                   `yaml:"name"`
	Rules            map[string]tt.ConfigRule `yaml:"rules"`
	IgnoreNamespaces []string                 `yaml:"ignore-namespaces,omitempty"`
	MaxSteps         int                      `yaml:"max-steps,omitempty"`
}

// DefaultConfig is written by "cilint init".
func DefaultConfig() Config {
	return Config{
		Name: "cilint",
		Rules: map[string]tt.ConfigRule{
			internal.QueryRootRuleName: {
				Severity: tt.SeverityWarning,
				Message:  "database round trip",
				Roots: []string{
					"System.Linq.Queryable::ToList",
					"Microsoft.EntityFrameworkCore.DbContext::SaveChanges",
				},
			},
			internal.EvaluationErrorRuleName: {Severity: tt.SeverityError},
		},
		IgnoreNamespaces: []string{"System", "Microsoft"},
	}
}

// New builds an engine from the configuration file. An empty path uses
// DefaultConfigFile when it exists and the built-in rules otherwise.
func New(logger *zap.Logger, configurationPath string, opts ...interp.Option) (*internal.Engine, error) {
	config, err := LoadConfig(configurationPath)
	if err != nil {
		return nil, err
	}
	if config.MaxSteps > 0 {
		opts = append([]interp.Option{interp.WithMaxSteps(config.MaxSteps)}, opts...)
	}

	engine, err := internal.NewEngine(logger, config.Rules, opts...)
	if err != nil {
		return nil, err
	}
	for _, ns := range config.IgnoreNamespaces {
		engine.IgnoreNamespace(ns)
	}
	return engine, nil
}

// LoadConfig reads a configuration file; see New for the empty path.
func LoadConfig(configurationPath string) (Config, error) {
	if configurationPath == "" {
		if _, err := os.Stat(DefaultConfigFile); err != nil {
			return Config{}, nil
		}
		configurationPath = DefaultConfigFile
	}
	return parseConfigurationFile(configurationPath)
}

func parseConfigurationFile(configurationPath string) (Config, error) {
	var config Config

	f, err := os.Open(configurationPath)
	if err != nil {
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && err != io.EOF {
		return config, fmt.Errorf("error parsing %s: %w", configurationPath, err)
	}
	return config, nil
}

// WriteConfig encodes config to path.
func WriteConfig(path string, config Config) error {
	d, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, d, 0o644)
}

func ProcessSources(
	ctx context.Context,
	logger *zap.Logger,
	engine LintEngine,
	sources [][]byte,
	processor func(LintEngine, []byte) ([]tt.Issue, error),
) ([]tt.Issue, error) {
	var allIssues []tt.Issue
	for i, source := range sources {
		if err := ctx.Err(); err != nil {
			return allIssues, err
		}
		issues, err := processor(engine, source)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing source", zap.Int("source", i), zap.Error(err))
			}
			return nil, err
		}
		allIssues = append(allIssues, issues...)
	}

	return allIssues, nil
}

func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine LintEngine,
	paths []string,
	processor func(LintEngine, string) ([]tt.Issue, error),
) ([]tt.Issue, error) {
	var allIssues []tt.Issue
	for _, path := range paths {
		issues, err := ProcessPath(ctx, logger, engine, path, processor)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			}
			return nil, err
		}
		allIssues = append(allIssues, issues...)
	}

	return allIssues, nil
}

// ProcessPath lints a listing file, or every listing under a directory.
// Files that fail to load are logged and skipped; on cancellation the
// issues collected so far are returned with the context error.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine LintEngine,
	path string,
	processor func(LintEngine, string) ([]tt.Issue, error),
) ([]tt.Issue, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}

	if !info.IsDir() {
		if !hasDesiredExtension(path) {
			return nil, nil
		}
		return processor(engine, path)
	}

	files, err := scanner.New(path, cil.ListingExtension).Paths()
	if err != nil {
		return nil, fmt.Errorf("error scanning %s: %w", path, err)
	}

	type result struct {
		issues []tt.Issue
		err    error
	}
	results := make(chan result, len(files))

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

	issues := []tt.Issue{}
	started := 0
	for _, filePath := range files {
		select {
		case <-ctx.Done():
		case sem <- struct{}{}:
			started++
			go func(fp string) {
				defer func() { <-sem }()
				fileIssues, err := processor(engine, fp)
				if err != nil && logger != nil {
					logger.Error("Error processing file", zap.String("file", fp), zap.Error(err))
				}
				_ = bar.Add(1)
				results <- result{issues: fileIssues, err: err}
			}(filePath)
			continue
		}
		break
	}

	for range started {
		r := <-results
		if r.err != nil {
			continue
		}
		issues = append(issues, r.issues...)
	}
	_ = bar.Finish()
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Filename < issues[j].Filename })

	if err := ctx.Err(); err != nil {
		return issues, err
	}
	return issues, nil
}

func ProcessFile(engine LintEngine, filePath string) ([]tt.Issue, error) {
	return engine.Run(filePath)
}

func ProcessSource(engine LintEngine, source []byte) ([]tt.Issue, error) {
	return engine.RunSource(source)
}

func hasDesiredExtension(path string) bool {
	return internal.IsListing(path)
}
