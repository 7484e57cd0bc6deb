// Command discpipe is the operator CLI for talking to a running discpiped
// daemon's control surface: queue inspection, oversight checks, wanted-list
// management, and configuration utilities.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
