//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the sweep example, with the sample config from example/sweep.
func (Run) Example() error {
	mg.Deps(Vet)
	fmt.Println("Run sweep example...")
	_, err := executeCmd("go", withArgs("run", ".", "-config", "narrowphase.toml"), withDir("example/sweep"), withStream())
	return err
}
