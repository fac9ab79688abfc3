package main

import (
	"fmt"
	"os"

	"github.com/wamppus/don-futures-v1/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
