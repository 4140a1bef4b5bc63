package main

import (
	"github.com/docuseek/indexcore/cmd"
	"github.com/docuseek/indexcore/internal/logging"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			logging.Fatal(r, "panicked")
		}
	}()

	cmd.Execute()
}
