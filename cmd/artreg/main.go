package main

import (
	"os"

	"github.com/0x-auth/artreg/internal/interface/cli"
)

func main() {
	if err := cli.NewRoot().Execute(); err != nil {
		os.Exit(1)
	}
}
