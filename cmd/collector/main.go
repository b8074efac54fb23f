package main

import (
	"github.com/onflow/node-dashboard/cmd/collector/cmd"
)

func main() {
	cmd.Execute()
}
