package main

import (
	"github.com/dashforge/dashforge/pkg/cli/cmd"
)

func main() {
	cmd.Execute()
}
