package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/PelionIoT/topology/server"
	"github.com/PelionIoT/topology/shared"
)

func init() {
	registerCommand("start", startServer, startUsage)
}

var startUsage string = `start -conf=[config file]
`

func startServer() error {
	var sc shared.YAMLServerConfig

	if len(*optConfigFile) == 0 {
		return fmt.Errorf("No config file specified (-conf)")
	}

	err := sc.LoadFromFile(*optConfigFile)

	if err != nil {
		return fmt.Errorf("Unable to load config file: %v", err)
	}

	topologyServer, err := server.NewTopologyServer(sc)

	if err != nil {
		return fmt.Errorf("Unable to create server: %v", err)
	}

	if err := topologyServer.Start(); err != nil {
		topologyServer.Stop()

		return fmt.Errorf("Unable to start server: %v", err)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	<-signals

	return topologyServer.Stop()
}
