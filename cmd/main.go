package main

import (
	"github.com/CipherCoRetech/SypherLang/cmd/commands"
)

func main() {
	commands.Execute()
}
