package main

import (
	"os"

	"github.com/AyehBlk/RAPTOR/raptor/cmd"
)

func main() {
	cmd.Execute(os.Args[1:])
}
