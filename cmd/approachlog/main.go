package main

import (
	"approachlog/internal/cli"
	"approachlog/internal/di"
	"fmt"
	"os"
)

func main() {
	root := cli.NewRootCommand(cli.Factories{
		Core: di.InitCore,
		App:  di.InitApp,
	})
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
