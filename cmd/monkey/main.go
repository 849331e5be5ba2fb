// Command monkey runs Monkey programs on the bytecode VM, or starts a REPL.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	monkey "github.com/xirelogy/go-monkey"
	"github.com/xirelogy/go-monkey/internal/bytecode"
	"github.com/xirelogy/go-monkey/internal/config"
	"github.com/xirelogy/go-monkey/internal/vm"
)

func main() {
	expr := flag.String("e", "", "Evaluate an expression and print its value")
	configPath := flag.String("config", "", "Load VM and log settings from a .toml or .yaml file")
	disassemble := flag.Bool("dis", false, "Print the bytecode listing instead of running")
	showStats := flag.Bool("stats", false, "Print execution counters after each run")
	verbosity := flag.Int("v", 0, "Log verbosity (0 quiet, 1 info, 2 debug)")
	trace := flag.Bool("trace", false, "Trace every dispatched instruction to stderr")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: monkey [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Runs a Monkey program. With no file and no -e, starts a REPL.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  monkey                       # Start REPL\n")
		fmt.Fprintf(os.Stderr, "  monkey fib.mk                # Run a file\n")
		fmt.Fprintf(os.Stderr, "  monkey -e 'len(\"abc\")'        # Evaluate one expression\n")
		fmt.Fprintf(os.Stderr, "  monkey -dis fib.mk           # Show the compiled bytecode\n")
		fmt.Fprintf(os.Stderr, "  monkey -config monkey.toml   # Size the VM from a config file\n")
	}
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *verbosity != 0 {
		cfg.Log.Verbosity = *verbosity
	}
	commonlog.Configure(cfg.Log.Verbosity, cfg.LogPath())

	opts := []monkey.Option{monkey.WithConfig(cfg)}
	if *trace {
		opts = append(opts, monkey.WithTraceHook(traceTo(os.Stderr)))
	}
	session := monkey.NewSession(opts...)

	switch {
	case *expr != "":
		os.Exit(runSource(session, *expr, true, *disassemble, *showStats))
	case flag.NArg() > 0:
		data, err := os.ReadFile(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(runSource(session, string(data), false, *disassemble, *showStats))
	default:
		runREPL(session, os.Stdin, os.Stdout, isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()), *showStats)
	}
}

// runSource evaluates src once and returns the process exit code.
func runSource(session *monkey.Session, src string, printResult, disassemble, showStats bool) int {
	if disassemble {
		if err := session.Disassemble(src, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	result, err := session.Eval(src)
	if showStats {
		printStats(os.Stderr, session.Stats())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if printResult || result.IsError() {
		fmt.Println(result.Inspect())
	}
	if result.IsError() {
		return 1
	}
	return 0
}

// runREPL reads one input per line and prints each result. The prompt is
// shown only when in is a terminal so piped input yields clean output.
func runREPL(session *monkey.Session, in io.Reader, out io.Writer, prompt, showStats bool) {
	if prompt {
		fmt.Fprintln(out, "Monkey REPL (type 'exit' to quit, ':dis <input>' to disassemble)")
	}

	scanner := bufio.NewScanner(in)
	for {
		if prompt {
			fmt.Fprint(out, ">> ")
		}
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			return
		case strings.HasPrefix(line, ":dis "):
			if err := session.Disassemble(strings.TrimPrefix(line, ":dis "), out); err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
			}
			continue
		}

		result, err := session.Eval(line)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, result.Inspect())
		if showStats {
			printStats(out, session.Stats())
		}
	}
}

func printStats(w io.Writer, st vm.Stats) {
	fmt.Fprintf(w, "-- %s instructions, max stack %s, max frames %s\n",
		humanize.Comma(int64(st.Instructions)),
		humanize.Comma(int64(st.MaxStack)),
		humanize.Comma(int64(st.MaxFrames)))
}

func traceTo(w io.Writer) vm.TraceHook {
	return func(info vm.TraceInfo) {
		fmt.Fprintf(w, "%*s%s %04d %-18s sp=%d\n", 2*(info.Depth-1), "", info.Function, info.IP, bytecode.OpName(info.Op), info.SP)
	}
}
