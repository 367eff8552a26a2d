package main

import (
	"fmt"
	"os"

	"github.com/lazypower/binder/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "binder: %v\n", err)
		os.Exit(1)
	}
}
