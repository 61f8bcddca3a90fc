package main

import (
	"os"

	"rpgTodoAPI/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
