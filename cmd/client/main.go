package main

import (
	"logisync/cmd/client/cmd"
)

func main() {
	cmd.Execute()
}
