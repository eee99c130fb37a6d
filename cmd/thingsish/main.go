package main

import (
	"os"

	"thingsish/cmd/thingsish/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args[1:], os.Stdout, os.Stderr, &cmd.Config{}))
}
