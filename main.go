package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/leshow/dhcpm/cmd"
)

func main() {
	sigChannel := make(chan os.Signal, 1)
	signal.Notify(sigChannel, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChannel
		cmd.Stop()
	}()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
