package main

import (
	"os"

	"github.com/scan-io-git/triage-bridge/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
