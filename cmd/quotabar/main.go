package main

import (
	"os"

	"github.com/user/quotabar/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
