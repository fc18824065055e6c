package main

import (
	"github.com/tranvictor/multisend/cmd"
)

func main() {
	cmd.Execute()
}
