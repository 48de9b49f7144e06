// Command canbridgectl is the host-side companion to the firmware
// personalities in this tree: a single binary with one subcommand per
// mode, mirroring gocanopen's own examples/cmd layout.
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: canbridgectl <sniff|replay|config|decode-log> [flags]")
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "sniff":
		err = runSniff(args)
	case "replay":
		err = runReplay(args)
	case "config":
		err = runConfig(args)
	case "decode-log":
		err = runDecodeLog(args)
	default:
		fmt.Fprintf(os.Stderr, "canbridgectl: unknown subcommand %q\n", cmd)
		os.Exit(2)
	}

	if err != nil {
		log.WithError(err).Fatalf("%s failed", cmd)
	}
}
