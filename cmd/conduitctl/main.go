package main

import (
	"os"

	"Conduit/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
