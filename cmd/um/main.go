// Command um runs a UM program read from a binary program file.
//
// Usage:
//
//	um [-v] <program-file>
package main

import (
	"errors"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/mbryksin/umvm/pkg/instr"
	"github.com/mbryksin/umvm/pkg/loader"
	"github.com/mbryksin/umvm/pkg/umlog"
	"github.com/mbryksin/umvm/pkg/vm"
)

// Exit codes, distinguishing failure classes for scripts driving um.
const (
	exitOK         = 0
	exitUsage      = 1
	exitLoadError  = 2
	exitFatalFault = 3
)

func main() {
	optVerbose := getopt.BoolLong("verbose", 'v', "Trace every instruction before it executes")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(exitOK)
	}

	args := getopt.Args()
	log := umlog.New(*optVerbose)
	defer log.Sync() //nolint:errcheck // best-effort flush on exit

	if len(args) != 1 {
		getopt.Usage()
		os.Exit(exitUsage)
	}

	fp, err := os.Open(args[0])
	if err != nil {
		log.Errorw("cannot open program file", "path", args[0], "error", err)
		os.Exit(exitLoadError)
	}
	defer fp.Close()

	program, err := loader.Load(fp)
	if err != nil {
		log.Errorw("cannot load program file", "path", args[0], "error", err)
		os.Exit(exitLoadError)
	}

	var opts []vm.Option
	if *optVerbose {
		opts = append(opts, vm.WithTrace(func(pc, w uint32) {
			log.Infow("fetch", "pc", pc, "instr", instr.Disassemble(w))
		}))
	}

	machine := vm.New(program, os.Stdin, os.Stdout, opts...)
	if err := machine.Run(); err != nil {
		var fault *vm.Fault
		if errors.As(err, &fault) {
			log.Errorw("fatal fault", "pc", fault.PC, "op", fault.Op, "error", fault.Err)
		} else {
			log.Errorw("fatal error", "error", err)
		}
		os.Exit(exitFatalFault)
	}
}
