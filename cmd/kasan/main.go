// Command kasan evaluates and verifies a facility snapshot offline.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/warp/addition-engine/cli"
)

func main() {
	// Color only when writing to a terminal and NO_COLOR is unset.
	fd := os.Stdout.Fd()
	color := (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) && os.Getenv("NO_COLOR") == ""

	root := cli.NewRootCmd(cli.NewApp(color))
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
