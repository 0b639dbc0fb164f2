// Command nysql is a thin command-line client over internal/dbengine: it
// submits SQL scripts to a database directory and lists table schema.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/nysql/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
