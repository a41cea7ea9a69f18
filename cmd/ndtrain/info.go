package main

import (
	"flag"
	"fmt"
	"runtime"
	"strings"

	"github.com/born-ml/ndtrain/dataset"
	"github.com/born-ml/ndtrain/internal/engine"
)

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	e := engine.Default()
	fmt.Println(titleStyle.Render("ndtrain engine"))
	fmt.Println(field("Version", fmt.Sprintf("%s (%d)", engine.VersionString(), engine.Version())))
	fmt.Println(field("Platform", runtime.GOOS+"/"+runtime.GOARCH))
	fmt.Println(field("CPU features", strings.Join(engine.CPUFeatures(), " ")))

	devices := make([]string, 0, e.GPUCount()+1)
	for _, d := range e.Devices() {
		devices = append(devices, d.String())
	}
	fmt.Println(field("Devices", strings.Join(devices, ", ")))

	fmt.Println(labelStyle.Render("Operators:"))
	for _, op := range engine.OpNames() {
		fmt.Println("  " + op)
	}
	return nil
}

func runSample(args []string) error {
	fs := flag.NewFlagSet("sample", flag.ContinueOnError)
	size := fs.Int("size", 10, "Dataset size")
	batch := fs.Int("batch", 3, "Batch size (0 = no batching)")
	shuffle := fs.Bool("shuffle", false, "Shuffle before batching")
	dropLast := fs.Bool("droplast", false, "Drop the final short batch")
	seed := fs.Uint64("seed", 0, "Shuffle seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		s   dataset.Sampler
		err error
	)
	switch {
	case *batch > 0:
		s, err = dataset.Sampling(*batch, *shuffle, *dropLast, *seed)
	case *shuffle:
		s = dataset.Random(*seed)
	default:
		s = dataset.Sequential()
	}
	if err != nil {
		return err
	}

	groups, err := s.Sample(*size)
	if err != nil {
		return err
	}
	fmt.Println(field("Sampler", s))
	fmt.Println(field("Batches", len(groups)))
	for i, g := range groups {
		fmt.Printf("%s %v\n", dimStyle.Render(fmt.Sprintf("%4d", i)), g)
	}
	return nil
}
