package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", bad.Sprint("Error:"), err)
		os.Exit(1)
	}
}
