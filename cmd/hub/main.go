package main

import (
	"github.com/onflow/node-dashboard/cmd/hub/cmd"
)

func main() {
	cmd.Execute()
}
