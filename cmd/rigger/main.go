// Command rigger expands deployment profiles into Docker Compose recipes
// or Kustomize bundles.
package main

import "github.com/cameronsjo/rigger/internal/cmd"

func main() {
	cmd.Execute()
}
