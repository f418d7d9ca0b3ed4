// Command pegc reads a grammar file, parses it with the meta-grammar
// parser, generates a packrat parser for it, and writes the result to
// disk (spec component F / §6).
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"

	"github.com/btouchard/pegc/internal/buildcache"
	"github.com/btouchard/pegc/internal/codegen"
	"github.com/btouchard/pegc/internal/metaparser"
	"github.com/btouchard/pegc/internal/perrors"
)

func main() {
	var (
		outputFile string
		quiet      bool
		verbose    int
		cachePath  string
	)
	flag.StringVar(&outputFile, "o", "parser_gen.go", "output file path")
	flag.BoolVar(&quiet, "q", false, "suppress the echo of parsed rules")
	flag.StringVar(&cachePath, "cache", "", "incremental build cache path (sqlite); empty disables caching")
	flag.BoolFunc("v", "verbosity; repeatable (-v enables debug messages, -v -v also prints the level); no parser or tokenizer trace is produced", func(string) error {
		verbose++
		return nil
	})
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pegc [-o output.go] [-v] [-q] [-cache path] <grammar.peg | ->\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if verbose > 0 {
		pterm.EnableDebugMessages()
	}

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0), outputFile, cachePath, quiet, verbose); err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
}

func run(inputPath, outputFile, cachePath string, quiet bool, verbose int) error {
	source, filename, err := readGrammar(inputPath)
	if err != nil {
		return fmt.Errorf("reading grammar: %w", err)
	}

	var cache *buildcache.Cache
	if cachePath != "" {
		cache, err = buildcache.Open(cachePath)
		if err != nil {
			return err
		}
		defer cache.Close()

		hash := buildcache.Hash(source)
		if build, ok := cache.Lookup(hash, outputFile); ok {
			pterm.Info.Printf("grammar unchanged since %s, skipping regeneration of %s\n", build.GeneratedAt.Format("15:04:05"), outputFile)
			return nil
		}
	}

	if verbose >= 2 {
		pterm.Debug.Printf("verbosity level %d\n", verbose)
	}

	rules, err := metaparser.ParseFile(source, filename)
	if err != nil {
		return explain(err)
	}

	if !quiet {
		for _, r := range rules {
			pterm.Info.Printf("rule %s: %d alternative(s)\n", r.Name, len(r.Alts.Alts))
		}
	}

	code, ruleCount, helperCount, err := codegen.Generate(rules)
	if err != nil {
		return fmt.Errorf("generating parser: %w", err)
	}

	if dir := filepath.Dir(outputFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(outputFile, []byte(code), 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}

	if cache != nil {
		if err := cache.Record(buildcache.Hash(source), outputFile, ruleCount, helperCount); err != nil {
			pterm.Warning.Println("build cache not updated: " + err.Error())
		}
	}

	pterm.Success.Printf("generated %s from %d rule(s)\n", outputFile, len(rules))
	return nil
}

// readGrammar reads the named grammar file, or stdin when path is "-".
func readGrammar(path string) (source, filename string, err error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", err
		}
		return string(data), "<stdin>", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	return string(data), path, nil
}

// explain renders a perrors.SyntaxError with its file, line, column and
// offending source line, per spec §8 scenario S6; other errors pass
// through unchanged.
func explain(err error) error {
	syn, ok := err.(*perrors.SyntaxError)
	if !ok {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s:%d:%d: %s\n", syn.Pos.File, syn.Pos.Line, syn.Pos.Column, syn.Error())
	if syn.Line != "" {
		fmt.Fprintf(os.Stderr, "\t%s\n", syn.Line)
	}
	return fmt.Errorf("syntax error in %s", syn.Pos.File)
}
