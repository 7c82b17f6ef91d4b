// The main package for the skysnap executable.
package main

import (
	"github.com/cloudsight/skysnap/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
