package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/cilint/formatter"
	"github.com/gnolang/cilint/internal"
	tt "github.com/gnolang/cilint/internal/types"
	"github.com/gnolang/cilint/lint"
)

var (
	ignoreRules      string
	ignoreNamespaces string
	lintJsonOutput   bool
	outPath          string
	cacheDir         string
	cacheMaxAge      time.Duration
	clearCache       bool
	watchMode        bool
)

var lintCmd = &cobra.Command{
	Use:   "lint [paths...]",
	Short: "Run the normal lint process",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide file or directory paths")
			os.Exit(1)
		}

		engine, err := lint.New(logger, cfgFile, interpOptions()...)
		if err != nil {
			logger.Fatal("Failed to initialize lint engine", zap.Error(err))
		}

		for _, rule := range splitList(ignoreRules) {
			engine.IgnoreRule(rule)
		}
		for _, ns := range splitList(ignoreNamespaces) {
			engine.IgnoreNamespace(ns)
		}

		if cacheDir != "" {
			cache, err := openCache(cacheDir, cacheMaxAge, clearCache)
			if err != nil {
				logger.Fatal("Failed to open cache", zap.String("dir", cacheDir), zap.Error(err))
			}
			if cfgFile != "" {
				if err := cache.AddDependency(cfgFile); err != nil {
					logger.Warn("Config file is not tracked by the cache", zap.Error(err))
				}
			}
			engine.SetCache(cache)
		}

		if watchMode {
			runWatch(engine, args)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		runNormalLintProcess(ctx, logger, engine, args, lintJsonOutput, outPath)
	},
}

func init() {
	lintCmd.Flags().StringVar(&ignoreRules, "ignore", "", "Comma-separated list of lint rules to ignore")
	lintCmd.Flags().StringVar(&ignoreNamespaces, "ignore-namespaces", "", "Comma-separated list of namespaces to skip")
	lintCmd.Flags().BoolVar(&lintJsonOutput, "json", false, "Output issues in JSON format")
	lintCmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (when using JSON)")
	lintCmd.Flags().StringVar(&cacheDir, "cache", "", "Directory for cached results")
	lintCmd.Flags().DurationVar(&cacheMaxAge, "cache-max-age", 24*time.Hour, "Discard cached results older than this")
	lintCmd.Flags().BoolVar(&clearCache, "clear-cache", false, "Drop every cached result before linting")
	lintCmd.Flags().BoolVar(&watchMode, "watch", false, "Re-lint listings as they change")
}

// openCache opens the result cache in dir. A zero maxAge keeps the cache
// default.
func openCache(dir string, maxAge time.Duration, reset bool) (*internal.Cache, error) {
	cache, err := internal.NewCache(dir)
	if err != nil {
		return nil, err
	}
	if maxAge > 0 {
		cache.SetMaxAge(maxAge)
	}
	if reset {
		cache.InvalidateAll()
	}
	return cache, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func runNormalLintProcess(ctx context.Context, logger *zap.Logger, engine lint.LintEngine, paths []string, isJson bool, jsonOutput string) {
	issues, err := lint.ProcessFiles(ctx, logger, engine, paths, lint.ProcessFile)
	if err != nil {
		logger.Error("Error processing files", zap.Error(err))
		os.Exit(1)
	}

	if err := printIssues(os.Stdout, issues, isJson, jsonOutput); err != nil {
		logger.Error("Error printing issues", zap.Error(err))
		os.Exit(1)
	}

	if len(issues) > 0 {
		os.Exit(1)
	}
}

func runWatch(engine *internal.Engine, dirs []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := engine.StartWatching(dirs, func(filename string, issues []tt.Issue) {
		if err := printIssues(os.Stdout, issues, lintJsonOutput, ""); err != nil {
			logger.Error("Error printing issues", zap.String("file", filename), zap.Error(err))
		}
	})
	if err != nil {
		logger.Fatal("Failed to start watching", zap.Error(err))
	}
	defer func() { _ = engine.StopWatching() }()

	fmt.Printf("Watching %s for changes (Ctrl+C to stop)\n", strings.Join(dirs, ", "))
	<-ctx.Done()
}

// printIssues writes issues grouped by file, as text to w or as JSON to
// w or jsonOutput.
func printIssues(w io.Writer, issues []tt.Issue, isJson bool, jsonOutput string) error {
	if isJson {
		if jsonOutput == "" {
			return formatter.WriteJSON(w, issues)
		}
		f, err := os.Create(jsonOutput)
		if err != nil {
			return fmt.Errorf("error creating JSON output file: %w", err)
		}
		defer f.Close()
		return formatter.WriteJSON(f, issues)
	}

	issuesByFile := make(map[string][]tt.Issue)
	for _, issue := range issues {
		issuesByFile[issue.Filename] = append(issuesByFile[issue.Filename], issue)
	}

	sortedFiles := make([]string, 0, len(issuesByFile))
	for filename := range issuesByFile {
		sortedFiles = append(sortedFiles, filename)
	}
	sort.Strings(sortedFiles)

	for _, filename := range sortedFiles {
		if _, err := fmt.Fprintln(w, formatter.GenerateFormattedIssue(issuesByFile[filename])); err != nil {
			return err
		}
	}
	return nil
}
