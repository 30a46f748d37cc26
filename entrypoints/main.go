package main

import (
	"github.com/Laisky/promptbox/cmd"
)

func main() {
	cmd.Execute()
}
