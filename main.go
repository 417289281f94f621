package main

import (
	"github.com/dogechain-lab/docwriter/command/root"
)

func main() {
	root.NewRootCommand().Execute()
}
