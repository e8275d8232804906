package main

import (
	"os"

	"github.com/pgwlab/runner/cmd/runner/internal"
)

func main() {
	os.Exit(internal.Execute())
}
