// Command neplc is the thin driver around the NEPL core: lex, parse, check,
// move-check, and (unless -check-only) emit a wasm module. Grounded on
// ailang's cmd/ailang/main.go (flag.FlagSet, colored phase progress via
// fatih/color, a small command switch) but trimmed to what a compiler-only
// front end needs; NEPL has no REPL.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/neknaj/NEPLg2-sub000/internal/check"
	"github.com/neknaj/NEPLg2-sub000/internal/config"
	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/lexer"
	"github.com/neknaj/NEPLg2-sub000/internal/move"
	"github.com/neknaj/NEPLg2-sub000/internal/parser"
	"github.com/neknaj/NEPLg2-sub000/internal/source"
	"github.com/neknaj/NEPLg2-sub000/internal/token"
	"github.com/neknaj/NEPLg2-sub000/internal/wasmgen"
)

var (
	cyan  = color.New(color.FgCyan).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
)

func main() {
	var (
		out         = flag.String("output", "", "output .wasm path (default: input with .wasm extension)")
		manifest    = flag.String("manifest", "nepl.yaml", "path to the project manifest")
		target      = flag.String("target", "", "compile target (wasm|wasi), overrides manifest; a #target directive takes precedence")
		profile     = flag.String("profile", "", "profile name, overrides manifest (no compiler stage reads it)")
		entry       = flag.String("entry", "", "entry function name recorded when the source has no #entry, overrides manifest")
		checkOnly   = flag.Bool("check-only", false, "stop after type/move checking, do not emit wasm")
		verbose     = flag.Bool("verbose", false, "print phase progress")
		forceColor  = flag.Bool("color", false, "force colored diagnostics even when stdout is not a terminal")
	)
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	defaults, err := config.Load(*manifest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), err)
		os.Exit(1)
	}
	defaults = defaults.Override(*target, *profile, *entry, 0)

	if err := run(path, *out, defaults, *checkOnly, *verbose, *forceColor); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(color.New(color.Bold).Sprint("neplc") + " - NEPL compiler driver")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  neplc [flags] <file.nepl>")
	fmt.Println()
	flag.PrintDefaults()
}

func run(path, out string, defaults config.Defaults, checkOnly, verbose, forceColor bool) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	colorize := forceColor || isatty.IsTerminal(os.Stdout.Fd())
	renderer := diag.NewRenderer(os.Stderr, &colorize)

	sm := source.NewMap()
	file := sm.AddFile(path, string(src))
	sink := diag.NewSink()

	if verbose {
		fmt.Fprintf(os.Stderr, "%s lexing %s\n", cyan("->"), path)
	}
	lx := lexer.New(sm, file, sink)
	var toks []token.Token
	for {
		t := lx.NextToken()
		toks = append(toks, t)
		if t.Kind == token.EOF {
			break
		}
	}
	if sink.HasErrors() {
		renderer.RenderAll(sink.Reports(), sm)
		return fmt.Errorf("lexing failed")
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "%s parsing\n", cyan("->"))
	}
	mod := parser.Parse(toks, file, sm, sink)
	if sink.HasErrors() {
		renderer.RenderAll(sink.Reports(), sm)
		return fmt.Errorf("parsing failed")
	}
	if mod.IndentUnit == 0 {
		mod.IndentUnit = defaults.IndentWidth
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "%s type checking\n", cyan("->"))
	}
	hmod, tc := check.Check(mod, sm, sink)
	if sink.HasErrors() {
		renderer.RenderAll(sink.Reports(), sm)
		return fmt.Errorf("type checking failed")
	}
	if hmod.TargetName == "" {
		hmod.TargetName = defaults.Target
	}
	if hmod.EntryFn == "" {
		hmod.EntryFn = defaults.Entry
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "%s move checking\n", cyan("->"))
	}
	move.Check(hmod, tc, sink)
	if sink.HasErrors() {
		renderer.RenderAll(sink.Reports(), sm)
		return fmt.Errorf("move checking failed")
	}

	if len(sink.Reports()) > 0 {
		renderer.RenderAll(sink.Reports(), sm)
	}

	if checkOnly {
		fmt.Printf("%s %s checks clean\n", green("ok"), path)
		return nil
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "%s emitting wasm\n", cyan("->"))
	}
	wasmBytes := wasmgen.Generate(hmod, tc, sink)
	if sink.HasErrors() {
		renderer.RenderAll(sink.Reports(), sm)
		return fmt.Errorf("code generation failed")
	}

	if out == "" {
		out = wasmOutputPath(path)
	}
	if err := os.WriteFile(out, wasmBytes, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Printf("%s wrote %s (%d bytes)\n", green("ok"), out, len(wasmBytes))
	return nil
}

func wasmOutputPath(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[:i] + ".wasm"
		}
	}
	return path + ".wasm"
}
