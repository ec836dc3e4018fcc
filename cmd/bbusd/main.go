// Command bbusd is the busybus daemon: it binds the local stream
// socket and runs the router's single-threaded readiness loop until a
// signal or a control client asks it to stop.
package main

import (
	"os"

	"github.com/chisheng/busybus/cmd/bbusd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
