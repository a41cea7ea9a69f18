// Package main provides the ndtrain CLI.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/born-ml/ndtrain/internal/engine"
	"github.com/born-ml/ndtrain/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "version":
		fmt.Printf("ndtrain %s\n", engine.VersionString())
		return
	case "info":
		err = runInfo(args)
	case "sample":
		err = runSample(args)
	case "train":
		err = runTrain(args)
	case "help", "-h", "-help", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}

	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(titleStyle.Render("ndtrain - batched training pipelines for Go"))
	fmt.Printf("Version: %s\n\n", engine.VersionString())
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  info       Show engine version, operators and devices")
	fmt.Println("  sample     Print the batches a sampler produces")
	fmt.Println("  train      Train a regression model on a CSV file")
	fmt.Println("")
	fmt.Println("Run 'ndtrain <command> -h' for command flags.")
}

// setupLogger installs the process-wide logger. The returned func flushes it.
func setupLogger(verbose bool) (func(), error) {
	var (
		log *zap.Logger
		err error
	)
	if verbose {
		log, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		log, err = cfg.Build()
	}
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	logging.SetLogger(log)
	return func() {
		_ = log.Sync()
		logging.SetLogger(nil)
	}, nil
}
