// Package main provides the seqnet CLI.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/born-ml/seqnet/internal/config"
	"github.com/born-ml/seqnet/internal/nn"
)

const version = "v0.0.1-dev"

func main() {
	logger := logrus.New()
	if err := run(os.Args[1:], logger); err != nil {
		logger.WithError(err).Error("seqnet failed")
		os.Exit(1)
	}
}

func run(args []string, logger *logrus.Logger) error {
	if len(args) == 0 {
		usage()
		return nil
	}

	switch args[0] {
	case "version":
		fmt.Printf("seqnet %s\n", version)
		return nil
	case "info":
		if len(args) < 2 || len(args) > 3 {
			return fmt.Errorf("usage: seqnet info <network.yaml> [weights.born]")
		}
		net, err := open(args[1:])
		if err != nil {
			return err
		}
		logger.SetLevel(logrus.DebugLevel)
		nn.Info(net, logger)
		return nil
	case "export":
		if len(args) != 4 {
			return fmt.Errorf("usage: seqnet export <network.yaml> <weights.born> <out.safetensors>")
		}
		net, err := open(args[1:3])
		if err != nil {
			return err
		}
		if err := nn.ExportSafeTensors(net, args[3]); err != nil {
			return err
		}
		logger.WithField("path", args[3]).Info("exported")
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// open builds the network described by paths[0] and loads the weights in
// paths[1] when given.
func open(paths []string) (nn.Network, error) {
	net, err := config.LoadFile(paths[0])
	if err != nil {
		return nil, err
	}
	if len(paths) > 1 {
		if err := nn.Load(net, paths[1]); err != nil {
			return nil, err
		}
	}
	return net, nil
}

func usage() {
	fmt.Println("seqnet - sequence networks with CTC alignment")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version                                       Show version")
	fmt.Println("  info <network.yaml> [weights.born]            Log the network tree and parameter norms")
	fmt.Println("  export <network.yaml> <weights.born> <out>    Write the weights as SafeTensors")
}
