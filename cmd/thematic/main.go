// cmd/thematic/main.go
package main

import (
	cmd "github.com/mwiater/thematic/internal/cli"
)

// main starts the thematic CLI by delegating to the cobra root command.
func main() {
	cmd.Execute()
}
