package main

import (
	"os"

	"github.com/ipsix/logagg/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
