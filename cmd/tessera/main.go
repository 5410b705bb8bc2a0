// Command tessera evaluates scene scripts and assembles render-ready
// triangle meshes from the parts they place.
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
