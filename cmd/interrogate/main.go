// interrogate generates C-callable wrappers and a metadata database for
// a C++ library described by declaration files.
package main

import (
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	var verbosity int
	return &cli.App{
		Name:  "interrogate",
		Usage: "generate wrapper functions for a C++ library",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log more; repeat for debug output",
				Count:   &verbosity,
			},
		},
		Before: func(*cli.Context) error {
			commonlog.Configure(verbosity, nil)
			return nil
		},
		Commands: []*cli.Command{
			generateCommand(),
			inspectCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "interrogate: %v\n", err)
		os.Exit(1)
	}
}
