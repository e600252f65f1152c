// Command opcuad is the UA/TCP server binary: it wires a
// runtime.Runtime from configuration and runs the connection-accept
// loop. Service-level request handling is left to whatever embeds
// pkg/ua and registers handlers on Runtime.Dispatch; this binary only
// proves out the transport.
package main

import (
	"fmt"
	"os"

	"github.com/ua-stack/opcua/cmd/opcuad/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
