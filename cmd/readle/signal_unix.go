//go:build !windows

package main

import (
	"os"
	"syscall"
)

// terminationSignals ends a chat on Ctrl-C or the SIGTERM sent by kill.
var terminationSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
