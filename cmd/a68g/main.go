// Command a68g is the §6 command-line driver: it resolves the source
// file, merges the optional `$HOME/.a68g/rc.yaml` file with the command
// line (flags win), builds an internal/engine.Engine sized from those
// options, and reports any diagnostic through a diag.SourceReporter.
//
// Grounded on raymyers-ralph-cc-go/cmd/ralph-cc/main.go's
// cobra.Command{RunE: ...} shape: one root command, package-level flag
// variables bound with rootCmd.Flags().*Var, SilenceUsage/SilenceErrors
// so the driver controls its own error text and exit code.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/genie68/a68run/internal/config"
	"github.com/genie68/a68run/internal/diag"
	"github.com/genie68/a68run/internal/engine"
	"github.com/genie68/a68run/internal/monitorhook"
	"github.com/genie68/a68run/internal/tree"
)

// frontend turns source text into the tree internal/engine.Run expects.
// spec.md §6 describes the core's input as "a tree of nodes, supplied
// by the parser, not specified here" -- no such parser exists in this
// repository, so the one implementation this package ships reports that
// plainly rather than guessing at a grammar. A real front end would
// plug in by replacing this var.
type frontend func(source []byte, filename string) (*tree.Node, error)

var parse frontend = func(source []byte, filename string) (*tree.Node, error) {
	return nil, fmt.Errorf("a68g: no front end configured; %s was read (%d bytes) but not parsed", filename, len(source))
}

var (
	flagExecute    string
	flagPrint      string
	flagCheck      bool
	flagStack      string
	flagHeap       string
	flagHandles    string
	flagFrame      string
	flagPrecision  int
	flagTimeLimit  int
	flagTrace      bool
	flagNoTrace    bool
	flagAssertions bool
	flagNoAssert   bool
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	rootCmd := newRootCmd(stdout, stderr)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return exitCode
}

// exitCode is set by runMain since cobra's RunE only reports err != nil,
// and a clean compile-check run (--check) still needs to distinguish
// "diagnostics were printed" from "nothing to report".
var exitCode int

func newRootCmd(stdout, stderr *os.File) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "a68g [file]",
		Short:         "a68g runs the propagator-interpreter engine over a compiled Algol 68 program tree",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			exitCode = runMain(args[0], stdout, stderr)
			return nil
		},
	}
	rootCmd.Flags().StringVar(&flagExecute, "execute", "", "wrap source in a program and execute it")
	rootCmd.Flags().StringVar(&flagPrint, "print", "", "wrap source in a program, execute it, and print the result")
	rootCmd.Flags().BoolVar(&flagCheck, "check", false, "mode-check only, do not execute")
	rootCmd.Flags().StringVar(&flagStack, "stack", "", "expression stack size, accepts k/M/G suffixes")
	rootCmd.Flags().StringVar(&flagHeap, "heap", "", "heap size, accepts k/M/G suffixes")
	rootCmd.Flags().StringVar(&flagHandles, "handles", "", "handle table size, accepts k/M/G suffixes")
	rootCmd.Flags().StringVar(&flagFrame, "frame", "", "frame stack size, accepts k/M/G suffixes")
	rootCmd.Flags().IntVar(&flagPrecision, "precision", 0, "LONG LONG REAL precision in digits")
	rootCmd.Flags().IntVar(&flagTimeLimit, "timelimit", 0, "CPU time limit in seconds, 0 for none")
	rootCmd.Flags().BoolVar(&flagTrace, "trace", false, "trace unit execution and enable the interactive monitor")
	rootCmd.Flags().BoolVar(&flagNoTrace, "notrace", false, "disable tracing (overrides --trace and any rc file)")
	rootCmd.Flags().BoolVar(&flagAssertions, "assertions", false, "enable runtime ASSERT checks")
	rootCmd.Flags().BoolVar(&flagNoAssert, "noassertions", false, "disable runtime ASSERT checks (overrides rc file)")
	return rootCmd
}

// runMain resolves opts, reads and parses the source, and runs it,
// returning the process exit code (§6: "0 on success, non-zero on any
// runtime or compile error").
func runMain(arg string, stdout, stderr *os.File) int {
	opts, err := resolveOptions(arg)
	if err != nil {
		fmt.Fprintln(stderr, "a68g:", err)
		return 1
	}

	sourcePath := opts.Source
	if opts.Execute != "" || opts.Print != "" {
		path, err := wrapInlineSource(opts)
		if err != nil {
			fmt.Fprintln(stderr, "a68g:", err)
			return 1
		}
		defer os.Remove(path)
		sourcePath = path
	}

	source, err := os.ReadFile(sourcePath)
	if err != nil {
		fmt.Fprintln(stderr, "a68g:", err)
		return 1
	}

	reporter := diag.NewSourceReporter(stderr, string(source))

	root, err := parse(source, sourcePath)
	if err != nil {
		fmt.Fprintln(stderr, "a68g:", err)
		return 1
	}
	if opts.Check {
		return 0
	}

	eng, err := engine.New(opts, reporter, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "a68g:", err)
		return 1
	}

	if opts.Trace {
		hook, err := monitorhook.New(stdout)
		if err != nil {
			fmt.Fprintln(stderr, "a68g:", err)
			return 1
		}
		defer hook.Close()
		eng.SetMonitorHook(hook)
	}

	if err := eng.Run(root); err != nil {
		return 1
	}
	return 0
}

// resolveOptions merges built-in defaults, the optional rc file, and
// the bound cobra flags, in that order of increasing priority, then
// resolves the positional source argument to an actual file (§6's
// tried-extensions rule).
func resolveOptions(arg string) (config.Options, error) {
	opts := config.Default()

	if rcPath, err := config.RCPath(); err == nil {
		if rc, found, err := config.LoadRC(rcPath); err != nil {
			return opts, err
		} else if found {
			if err := config.ApplyRC(&opts, rc); err != nil {
				return opts, err
			}
		}
	}

	if flagStack != "" {
		v, err := config.ParseSize(flagStack)
		if err != nil {
			return opts, fmt.Errorf("--stack: %w", err)
		}
		opts.Stack = v
	}
	if flagHeap != "" {
		v, err := config.ParseSize(flagHeap)
		if err != nil {
			return opts, fmt.Errorf("--heap: %w", err)
		}
		opts.Heap = v
	}
	if flagHandles != "" {
		v, err := config.ParseSize(flagHandles)
		if err != nil {
			return opts, fmt.Errorf("--handles: %w", err)
		}
		opts.Handles = v
	}
	if flagFrame != "" {
		v, err := config.ParseSize(flagFrame)
		if err != nil {
			return opts, fmt.Errorf("--frame: %w", err)
		}
		opts.Frame = v
	}
	if flagPrecision != 0 {
		opts.Precision = flagPrecision
	}
	if flagTimeLimit != 0 {
		opts.TimeLimit = flagTimeLimit
	}
	if flagTrace {
		opts.Trace = true
	}
	if flagNoTrace {
		opts.Trace = false
	}
	if flagAssertions {
		opts.Assertions = true
	}
	if flagNoAssert {
		opts.Assertions = false
	}
	opts.Check = flagCheck
	opts.Execute = flagExecute
	opts.Print = flagPrint

	if opts.Execute == "" && opts.Print == "" {
		resolved, err := config.ResolveSource(arg)
		if err != nil {
			return opts, err
		}
		opts.Source = resolved
	}
	return opts, nil
}

// wrapInlineSource implements --execute/--print: the argument string is
// the unit text itself rather than a file, so it is wrapped in a
// throwaway source file before parsing (§6: "--execute UNIT runs UNIT
// as if it were the body of the source program; --print UNIT additionally
// prints its value").
func wrapInlineSource(opts config.Options) (string, error) {
	body := opts.Execute
	if opts.Print != "" {
		body = "print ((" + opts.Print + "))"
	}
	f, err := os.CreateTemp("", "a68g-inline-*.a68")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.WriteString(body + "\n"); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
