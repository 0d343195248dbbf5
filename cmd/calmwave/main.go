// Command calmwave plays generated ambient audio sessions in the terminal or
// runs them headless behind an HTTP control API.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
