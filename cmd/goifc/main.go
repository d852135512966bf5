package main

import (
	"github.com/philipparndt/goifc/cmd"
)

func main() {
	cmd.AddCommand(infoCmd, entitiesCmd)
	cmd.Execute()
}
