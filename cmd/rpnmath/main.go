// Command rpnmath evaluates postfix IR programs.
package main

import (
	"fmt"
	"os"

	"github.com/LowLevelDaniel/rpnmath/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rpnmath: %v\n", err)
	}
	os.Exit(cli.GetExitCode(err))
}
