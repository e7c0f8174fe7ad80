package main

import (
	"os"

	"github.com/psantana5/psql-runner/cmd/psqlrun/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
