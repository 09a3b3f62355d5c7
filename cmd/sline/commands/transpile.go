package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-singleline/internal/scanner"
	"github.com/l3aro/go-singleline/pkg/ast"
	"github.com/l3aro/go-singleline/pkg/cache"
	"github.com/l3aro/go-singleline/pkg/parser"
	"github.com/l3aro/go-singleline/pkg/transform"
)

// transpileResult is the outcome for one input file.
type transpileResult struct {
	File   string `json:"file"`
	Output string `json:"output,omitempty"`
	Loops  int    `json:"loops"`
	Cached bool   `json:"cached"`
	Error  string `json:"error,omitempty"`
}

func newTranspileCmd(a *app) *cobra.Command {
	var (
		jsonOutput bool
		outPath    string
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "transpile <file|dir>",
		Short: "Rewrite Python source as a single expression",
		Long: `Parses a Python file, rewrites its loops into recursive closures and composes
the result into one expression. A directory transpiles every .py file below it,
honoring .slineignore patterns.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTranspile(cmd, args[0], jsonOutput, outPath, noCache)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write output to a file instead of stdout")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the result cache")

	return cmd
}

func (a *app) runTranspile(cmd *cobra.Command, target string, jsonOutput bool, outPath string, noCache bool) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stat %s: %w", target, err)
	}

	var files []string
	if info.IsDir() {
		found, err := scanner.Scan(target)
		if err != nil {
			return fmt.Errorf("scanning %s: %w", target, err)
		}
		for _, f := range found {
			files = append(files, filepath.Join(target, filepath.FromSlash(f.Path)))
		}
		a.logger.Debug("scanned directory", "dir", target, "files", len(files))
	} else {
		files = []string{target}
	}

	var results *cache.LRUCache
	if a.cfg.CacheEnabled && !noCache {
		results = a.openCache()
		defer a.persistCache(results)
	}

	opts := a.cfg.TransformOptions()
	out := make([]transpileResult, 0, len(files))
	failed := 0
	for _, path := range files {
		res, err := a.transpileFile(ctx, results, path, opts)
		if err != nil {
			if !info.IsDir() {
				return err
			}
			a.logger.Error("transpile failed", "file", path, "error", err)
			res = transpileResult{File: path, Error: err.Error()}
			failed++
		}
		out = append(out, res)
	}

	if err := emitTranspileResults(cmd.OutOrStdout(), outPath, out, info.IsDir(), jsonOutput); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to transpile", failed, len(files))
	}
	return nil
}

// transpileFile transpiles one file, consulting the cache when one is open.
func (a *app) transpileFile(ctx context.Context, results *cache.LRUCache, path string, opts transform.Options) (transpileResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return transpileResult{}, fmt.Errorf("reading file %s: %w", path, err)
	}

	key := cache.Key(content, opts)
	if results != nil {
		if hit, ok := results.Get(key); ok {
			a.logger.Debug("cache hit", "file", path)
			return transpileResult{File: path, Output: hit.Output, Loops: hit.Loops, Cached: true}, nil
		}
	}

	stmts, err := parser.Parse(ctx, content)
	if err != nil {
		return transpileResult{}, fmt.Errorf("%s: %w", path, err)
	}

	t := transform.NewTranspiler(opts)
	expr, err := t.Transpile(stmts)
	if err != nil {
		return transpileResult{}, fmt.Errorf("%s: %w", path, err)
	}

	res := transpileResult{File: path, Output: ast.Format(expr), Loops: t.Loops()}
	if results != nil {
		results.Set(key, cache.Result{Output: res.Output, Loops: res.Loops})
	}
	a.logger.Debug("transpiled", "file", path, "loops", res.Loops, "bytes", len(res.Output))

	return res, nil
}

// emitTranspileResults writes results to w, or to outPath when it is set.
func emitTranspileResults(w io.Writer, outPath string, results []transpileResult, many, jsonOutput bool) error {
	if outPath == "" {
		return writeTranspileResults(w, results, many, jsonOutput)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	if err := writeTranspileResults(f, results, many, jsonOutput); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", outPath, err)
	}
	return nil
}

func writeTranspileResults(w io.Writer, results []transpileResult, many, jsonOutput bool) error {
	if jsonOutput {
		if !many && len(results) == 1 {
			return writeJSON(w, results[0])
		}
		return writeJSON(w, results)
	}

	for _, res := range results {
		if many {
			if _, err := fmt.Fprintf(w, "# %s\n", res.File); err != nil {
				return err
			}
		}
		if res.Error != "" {
			if _, err := fmt.Fprintf(w, "# error: %s\n", res.Error); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintln(w, res.Output); err != nil {
			return err
		}
	}
	return nil
}

// openCache loads the persisted result cache. A cache that cannot be read is
// replaced by an empty one.
func (a *app) openCache() *cache.LRUCache {
	path := a.cfg.CacheFile()
	results := cache.New(cache.Options{MaxSize: a.cfg.CacheMaxEntries})
	if err := cache.LoadFromFile(results, path); err != nil {
		a.logger.Warn("ignoring unreadable cache", "path", path, "error", err)
		results.Clear()
	}
	return results
}

func (a *app) persistCache(results *cache.LRUCache) {
	path := a.cfg.CacheFile()
	if err := cache.PersistToFile(results, path); err != nil {
		a.logger.Warn("could not save cache", "path", path, "error", err)
		return
	}
	stats := results.Stats()
	a.logger.Debug("cache saved", "path", path, "entries", stats.Length, "hits", stats.HitCount, "misses", stats.MissCount)
}
