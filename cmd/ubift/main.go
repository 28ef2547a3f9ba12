// Command ubift is a read-only forensic reconstruction tool for raw
// NAND-flash images containing UBI/UBIFS: the command surface described
// in spec.md §6.1, a thin shell dispatching onto the core packages
// under internal/.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matthias-deu/ubift/internal/ubiftlog"
)

// interruptibleContext returns a context canceled on SIGINT/SIGTERM, so
// a long-running ubift_recover can stop cooperatively between files
// (spec.md §5) instead of being killed mid-write.
func interruptibleContext() (context.Context, context.CancelFunc) {
	ctx, canc := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		signal.Stop(sig)
		canc()
	}()
	return ctx, canc
}

func usage(fset *flag.FlagSet, helpText string) func() {
	return func() {
		fmt.Fprintln(os.Stderr, helpText)
		fmt.Fprintf(os.Stderr, "Flags for ubift %s:\n", fset.Name())
		fset.PrintDefaults()
	}
}

type verb func(ctx context.Context, log ubiftlog.Logger, args []string) error

func verbs() map[string]verb {
	return map[string]verb{
		"mtdls":         cmdMtdls,
		"mtdcat":        cmdMtdcat,
		"pebcat":        cmdPebcat,
		"ubils":         cmdUbils,
		"lebls":         cmdLebls,
		"lebcat":        cmdLebcat,
		"ubicat":        cmdUbicat,
		"fsstat":        cmdFsstat,
		"fls":           cmdFls,
		"ils":           cmdIls,
		"ffind":         cmdFfind,
		"icat":          cmdIcat,
		"istat":         cmdIstat,
		"jls":           cmdJls,
		"ubift_recover": cmdUbiftRecover,
		"ubift_info":    cmdUbiftInfo,
	}
}

func funcmain() error {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: ubift <command> [-flags] <args>\n")
		printVerbList()
		os.Exit(2)
	}
	verb, ok := verbs()[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		printVerbList()
		os.Exit(2)
	}

	ctx, canc := interruptibleContext()
	defer canc()
	log := ubiftlog.NewStdLogger(os.Stderr)
	return verb(ctx, log, os.Args[2:])
}

func printVerbList() {
	fmt.Fprintln(os.Stderr, "commands:")
	for _, name := range []string{
		"mtdls", "mtdcat", "pebcat", "ubils", "lebls", "lebcat", "ubicat",
		"fsstat", "fls", "ils", "ffind", "icat", "istat", "jls",
		"ubift_recover", "ubift_info",
	} {
		fmt.Fprintf(os.Stderr, "\t%s\n", name)
	}
}

func main() {
	if err := funcmain(); err != nil {
		fmt.Fprintf(os.Stderr, "ubift: %v\n", err)
		os.Exit(1)
	}
}
