package main

import (
	"fmt"
	"os"

	"github.com/wangdaguo68/kinghome/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "kinghome: %v\n", err)
		os.Exit(1)
	}
}
