//go:build !windows

package main

import (
	"os"
	"os/signal"
	"syscall"
)

// notifySignals routes SIGINT and SIGTERM to ch so a running simulation can
// stop between sweeps.
func notifySignals(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
}
