package main

import (
	"os"

	"github.com/NamanBalaji/vidloader/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
