//go:build windows

package main

import "os"

// terminationSignals ends a chat on Ctrl-C. Windows has no SIGTERM.
var terminationSignals = []os.Signal{os.Interrupt}
