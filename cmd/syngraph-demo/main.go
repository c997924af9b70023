// Command syngraph-demo is a minimal host: it loads a toylang source file,
// builds the typed AST (C5/C6), drains both resolver queues (C7), and
// prints the result a real editor would ask for -- document symbols and
// semantic tokens -- as JSON, the same shape Capability Dispatch (C9)
// returns to any caller.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/oxhq/syngraph/core"
	"github.com/oxhq/syngraph/examples/toylang"
	"github.com/oxhq/syngraph/internal/build"
	"github.com/oxhq/syngraph/internal/dispatch"
	"github.com/oxhq/syngraph/internal/resolve"
)

var (
	verbose bool
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "syngraph-demo [file]",
	Short: "Build a toylang AST and print its document symbols and semantic tokens",
	Args:  cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runDemo,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type output struct {
	DocumentID  string             `json:"documentId"`
	Diagnostics []core.Diagnostic  `json:"diagnostics,omitempty"`
	Symbols     []symbolOut        `json:"documentSymbols"`
	Tokens      []tokenOut         `json:"semanticTokens"`
}

func runDemo(cmd *cobra.Command, args []string) error {
	path := args[0]
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	docID := uuid.NewString()
	sugar := logger.Sugar().With("documentId", docID, "path", path)

	ctx := context.Background()
	doc, err := core.NewDocument(ctx, path, src, toylang.Language())
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	defer doc.Close()

	query, err := toylang.CompileQuery()
	if err != nil {
		return fmt.Errorf("compile query: %w", err)
	}

	reg, conflicts := toylang.NewRegistry()
	if len(conflicts) > 0 {
		for _, c := range conflicts {
			sugar.Errorw("schema conflict", "conflict", c.Error())
		}
		return fmt.Errorf("toylang schema has %d conflict(s)", len(conflicts))
	}

	checks := resolve.NewQueue()
	references := resolve.NewQueue()
	sink := &core.DiagnosticSink{}
	driver := resolve.NewDriver(checks, references, sink, sugar)

	lw := &build.Lowerer{
		IDs:        build.NewIDs(),
		Checks:     checks,
		References: references,
		Document:   doc,
	}

	module, diags, err := toylang.Build(ctx, doc, query, reg, lw)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	for _, d := range diags {
		sink.Add(d)
	}
	if module == nil {
		return fmt.Errorf("build produced no root")
	}

	driver.DrainChecks()
	driver.DrainReferences(module, resolve.DefaultLookup(doc))

	symbols, _ := dispatch.DocumentSymbols(module)
	tokens, _ := dispatch.SemanticTokens(module, nil)

	out := output{
		DocumentID:  docID,
		Diagnostics: sink.All(),
		Symbols:     toSymbolOut(symbols),
		Tokens:      toTokenOut(tokens),
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
