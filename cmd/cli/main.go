package main

import (
	"os"

	"github.com/coldread-dev/coldread/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
