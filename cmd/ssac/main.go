// Command ssac reads textual SSA IR, lowers it through the
// fixed pass pipeline, and emits x86-64 AT&T assembly. The CLI uses a
// testable newRootCmd constructor, SilenceUsage/SilenceErrors, and a
// run() int wrapping os.Exit.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bpetersen/ssac/pkg/ir"
	"github.com/bpetersen/ssac/pkg/lexer"
	"github.com/bpetersen/ssac/pkg/parser"
	"github.com/bpetersen/ssac/pkg/passes"
	"github.com/bpetersen/ssac/pkg/target"
	"github.com/bpetersen/ssac/pkg/types"
	"github.com/bpetersen/ssac/pkg/x86"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// ioFailure wraps an error that should exit 2 rather than the default 1:
// 0 success, 1 parse or sema failure, 2 I/O failure.
type ioFailure struct{ err error }

func (e *ioFailure) Error() string { return e.err.Error() }
func (e *ioFailure) Unwrap() error { return e.err }

func wrapIO(err error) error {
	if err == nil {
		return nil
	}
	return &ioFailure{err: err}
}

// CLI flags.
var (
	optPasses         []string
	outputFile        string
	dumpTokens        bool
	showIntermediates bool
	picFlag           string
	emitTriple        string
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		var io *ioFailure
		if errors.As(err, &io) {
			return 2
		}
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ssac [file]",
		Short: "ssac compiles a textual SSA IR to x86-64 assembly",
		Long: `ssac parses a textual SSA IR, validates it, lowers it through the
fixed expand_builtins -> to_dag -> abi -> isel -> regalloc pipeline, and
emits x86-64 AT&T-syntax assembly.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := "-"
			if len(args) == 1 {
				filename = args[0]
			}

			src, err := readInput(filename)
			if err != nil {
				return wrapIO(err)
			}

			if dumpTokens {
				dumpAllTokens(out, src)
				return nil
			}

			return compile(src, filename, out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().StringArrayVarP(&optPasses, "opt", "O", nil, "enable an optimization pass (recorded only, no optimizer exists)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "-", "output filename, - or absent means stdout")
	rootCmd.Flags().BoolVar(&dumpTokens, "dump-tokens", false, "print the token stream and exit")
	rootCmd.Flags().BoolVar(&showIntermediates, "show-intermediates", false, "dump IR after every pass")
	rootCmd.Flags().StringVar(&picFlag, "pic", "false", "true|false: enable position-independent code")
	rootCmd.Flags().StringVar(&emitTriple, "emit", "linux-x86_64", "target triple, <sys>-<arch>")

	return rootCmd
}

// readInput reads filename, or stdin when filename is "-".
func readInput(filename string) (string, error) {
	if filename == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("ssac: reading stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("ssac: reading %s: %w", filename, err)
	}
	return string(b), nil
}

// openOutput opens the destination for assembly output, or stdout when
// outputFile is "-" or empty. The returned closer is a no-op for stdout.
func openOutput() (io.Writer, func() error, error) {
	if outputFile == "" || outputFile == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, fmt.Errorf("ssac: creating %s: %w", outputFile, err)
	}
	return f, f.Close, nil
}

func dumpAllTokens(out io.Writer, src string) {
	l := lexer.New(src)
	for {
		tok := l.NextToken()
		fmt.Fprintf(out, "%d:%d\t%v\t%q\n", tok.Line, tok.Column, tok.Type, tok.Literal)
		if tok.Type == lexer.TokenEOF {
			return
		}
	}
}

// compile parses src, validates it, runs the lowering pipeline, and
// prints the resulting assembly. Errors from lexing/parsing are always
// fatal (exit 1); sema errors collected by the sink are reported and
// also abort before any pass runs.
func compile(src, filename string, out, errOut io.Writer) error {
	tgt, err := target.Parse(emitTriple)
	if err != nil {
		return fmt.Errorf("ssac: %w", err)
	}
	tgt.PICActive = picFlag == "true"

	universe := types.NewUniverse(types.PointerInfo{Size: tgt.PointerSize, Align: tgt.PointerAlign})
	unit := ir.NewUnit(universe, tgt.PrivatePrefix)

	var semaErrors []error
	sink := func(e error) { semaErrors = append(semaErrors, e) }

	l := lexer.New(src)
	p := parser.New(l, universe, unit, tgt, sink)
	p.ParseUnit()

	for _, e := range p.Errors() {
		fmt.Fprintf(errOut, "ssac: %s: %v\n", filename, e)
	}
	if len(p.Errors()) > 0 {
		return errors.New("ssac: parse errors")
	}

	for _, e := range unit.Errors {
		fmt.Fprintf(errOut, "ssac: %s: %v\n", filename, e)
	}
	if len(unit.Errors) > 0 {
		return errors.New("ssac: semantic errors in globals")
	}
	if len(semaErrors) > 0 {
		for _, e := range semaErrors {
			fmt.Fprintf(errOut, "ssac: %s: %v\n", filename, e)
		}
		return errors.New("ssac: semantic errors")
	}

	pipeline := passes.Default(target.SysVAbi())
	if showIntermediates {
		pipeline.ShowIntermediates = true
		pipeline.Dump = func(stage string, u *ir.Unit) { dumpUnit(errOut, stage, u) }
	}
	if err := pipeline.Run(unit, tgt); err != nil {
		return fmt.Errorf("ssac: %w", err)
	}

	w, closeOut, err := openOutput()
	if err != nil {
		return wrapIO(err)
	}
	x86.NewPrinter(w, unit, tgt).PrintUnit()
	if err := closeOut(); err != nil {
		return wrapIO(err)
	}
	return nil
}

// dumpUnit renders a coarse textual trace of every function's blocks and
// instructions after a pass, for --show-intermediates. There is no
// canonical pretty-printer for IR at arbitrary pipeline stages (unlike
// the final assembly, which pkg/x86 owns), so this prints only each
// instruction's Go type.
func dumpUnit(w io.Writer, stage string, u *ir.Unit) {
	fmt.Fprintf(w, "-- after %s --\n", stage)
	for _, g := range u.Globals() {
		fn, ok := g.AsFunc()
		if !ok || len(fn.Blocks()) == 0 {
			continue
		}
		fmt.Fprintf(w, "func %s:\n", g.Name)
		for _, b := range fn.ReachableBlocks() {
			fmt.Fprintf(w, "  %s\n", b.String())
			for _, inst := range b.Isns() {
				fmt.Fprintf(w, "    %T\n", inst)
			}
		}
	}
}
