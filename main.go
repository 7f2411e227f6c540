package main

import (
	"context"
	"os"

	"charm.land/fang/v2"

	"github.com/ibeckermayer/likesearch/internal/cli"
)

func main() {
	rootCmd := cli.NewRootCmd()
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
