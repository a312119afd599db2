package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

func showUsage() {
	fmt.Fprintf(os.Stderr, `nxtc - A compiler targeting the LEGO NXT bytecode VM

Usage:
    nxtc <command> [arguments]

Commands:
    build <file>... Compile source files to .rxe executables
    check <file>    Compile a file and report diagnostics without writing output
    dump <file>     Show the header, slot table and code of a compiled .rxe file
    help            Show this help message

Examples:
    nxtc build examples/patrol.nxt
    nxtc build -o robot.rxe main.nxt
    nxtc check main.nxt
    nxtc dump robot.rxe

Use "nxtc <command> -h" for more information about a command.
`)
}

func buildCommand(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	output := fs.String("o", "", "Output file path (default: <filename>.rxe)")
	verbose := fs.Bool("v", false, "Show compiled image statistics")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nxtc build [-o output] [-v] <file>...\n")
		fmt.Fprintf(os.Stderr, "Compile source files to NXT executables\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: expected at least one file argument\n")
		fs.Usage()
		os.Exit(1)
	}
	if *output != "" && fs.NArg() > 1 {
		fmt.Fprintf(os.Stderr, "Error: -o cannot be used with multiple input files\n")
		os.Exit(1)
	}

	var g errgroup.Group
	for _, filename := range fs.Args() {
		g.Go(func() error {
			return buildFile(filename, *output, *verbose)
		})
	}
	if err := g.Wait(); err != nil {
		os.Exit(1)
	}
}

func buildFile(filename, output string, verbose bool) error {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file %s: %v\n", filename, err)
		return err
	}

	image, diags := CompileSource(source)
	if len(diags) > 0 {
		for _, d := range diags {
			fmt.Fprintf(os.Stderr, "%s: %s\n", filename, d)
		}
		return fmt.Errorf("%s: compilation failed", filename)
	}

	if output == "" {
		output = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".rxe"
	}
	if err := os.WriteFile(output, image, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", output, err)
		return err
	}

	if verbose {
		img, perr := ParseImage(image)
		if perr != nil {
			fmt.Fprintf(os.Stderr, "Error re-reading %s: %v\n", output, perr)
			return perr
		}
		fmt.Printf("%s: %d bytes, %d slots, %d clumps, %d code words\n",
			output, len(image), img.DataspaceCount, len(img.Clumps), len(img.CodeWords))
	}
	return nil
}

func checkCommand(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Show the parsed program")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nxtc check [-v] <file>\n")
		fmt.Fprintf(os.Stderr, "Compile a file and report diagnostics without writing output\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		os.Exit(1)
	}

	filename := fs.Arg(0)
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file %s: %v\n", filename, err)
		os.Exit(1)
	}

	if *verbose {
		if tokens, cerr := Tokenize(source); cerr == nil {
			if program, perr := Parse(tokens); perr == nil {
				fmt.Printf("AST: %s\n", ToSExpr(program))
			}
		}
	}

	if _, diags := CompileSource(source); len(diags) > 0 {
		for _, d := range diags {
			fmt.Fprintf(os.Stderr, "%s: %s\n", filename, d)
		}
		os.Exit(1)
	}
	fmt.Printf("%s: no errors found\n", filename)
}

func dumpCommand(args []string) {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nxtc dump <file>\n")
		fmt.Fprintf(os.Stderr, "Show the header, slot table and code of a compiled .rxe file\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		os.Exit(1)
	}

	filename := fs.Arg(0)
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file %s: %v\n", filename, err)
		os.Exit(1)
	}

	img, err := ParseImage(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", filename, err)
		os.Exit(1)
	}
	dumpImage(os.Stdout, img)
}

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "build":
		buildCommand(args)
	case "check":
		checkCommand(args)
	case "dump":
		dumpCommand(args)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", command)
		showUsage()
		os.Exit(1)
	}
}
