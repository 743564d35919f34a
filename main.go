// Command stencil-opt is the auto-tuning compiler's CLI entrypoint; it
// delegates to the Cobra root command in cmd/root.go.
package main

import (
	"github.com/stencil-opt/stencil-opt/cmd"
)

func main() {
	cmd.Execute()
}
