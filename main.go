package main

import (
	"fmt"
	"os"

	"github.com/corner-25/test-umc-sub000/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
