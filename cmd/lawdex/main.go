package main

import "github.com/aoba-labs/lawdex/internal/adapters/driving/cli"

// version is injected at build time:
// go build -ldflags "-X main.version=..."
var version = ""

func main() {
	cli.SetVersion(version)
	cli.Execute()
}
