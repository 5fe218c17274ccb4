// Package main provides the compute layer CLI.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kmc7468/ShitAIMaker-sub000/compute"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("compute %s\n", version)
	case "devices":
		err = runDevices(os.Args[2:])
	case "gemm":
		err = runGemm(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("compute - heterogeneous compute layer")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  devices    List initialized devices")
	fmt.Println("  gemm       Multiply random matrices on every device")
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()
}

func initialize(verbose bool) (*compute.Context, error) {
	cfg := compute.ConfigFromEnv()
	cfg.Logger = newLogger(verbose)
	return compute.Initialize(cfg)
}

func runDevices(args []string) error {
	fs := flag.NewFlagSet("devices", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, err := initialize(*verbose)
	if err != nil {
		return err
	}
	defer ctx.Finalize()

	for _, d := range ctx.Devices() {
		info := d.Info()
		fmt.Printf("%-5s %s\n", info.Kind, info.Name)
		if info.TotalMemory > 0 {
			fmt.Printf("      memory:   %d MiB\n", info.TotalMemory>>20)
		}
		if len(info.Features) > 0 {
			fmt.Printf("      features: %s\n", strings.Join(info.Features, " "))
		}
	}
	return nil
}

func runGemm(args []string) error {
	fs := flag.NewFlagSet("gemm", flag.ContinueOnError)
	m := fs.Int("m", 256, "rows of A")
	n := fs.Int("n", 256, "columns of A, rows of B")
	k := fs.Int("k", 256, "columns of B")
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *m <= 0 || *n <= 0 || *k <= 0 {
		return errors.New("m, n and k must be positive")
	}

	ctx, err := initialize(*verbose)
	if err != nil {
		return err
	}
	defer ctx.Finalize()

	a := make([]float32, *m**n)
	b := make([]float32, *n**k)
	for i := range a {
		a[i] = float32(i%17) * 0.25
	}
	for i := range b {
		b[i] = float32(i%13) * 0.5
	}

	for _, d := range ctx.Devices() {
		elapsed, sum, err := gemm(d, *m, *n, *k, a, b)
		if err != nil {
			fmt.Printf("%-5s %-40s %v\n", d.Kind(), d.Name(), err)
			continue
		}
		fmt.Printf("%-5s %-40s %10s  checksum %.3f\n", d.Kind(), d.Name(), elapsed.Round(time.Microsecond), sum)
	}
	return nil
}

// gemm runs one column-major multiplication, so every backend can take it.
func gemm(d compute.Device, m, n, k int, aData, bData []float32) (time.Duration, float64, error) {
	a, err := compute.CreateBuffer[float32](d, m*n)
	if err != nil {
		return 0, 0, err
	}
	defer a.Release()
	b, err := compute.CreateBuffer[float32](d, n*k)
	if err != nil {
		return 0, 0, err
	}
	defer b.Release()
	c, err := compute.CreateBuffer[float32](d, m*k)
	if err != nil {
		return 0, 0, err
	}
	defer c.Release()

	if err := compute.WriteSlice(d, a, aData); err != nil {
		return 0, 0, err
	}
	if err := compute.WriteSlice(d, b, bData); err != nil {
		return 0, 0, err
	}

	start := time.Now()
	err = d.MultiplyMatrixAsync(m, n,
		compute.F32(a, compute.ColumnMajor), compute.F32(b, compute.ColumnMajor), compute.F32(c, compute.ColumnMajor))
	if err != nil {
		return 0, 0, err
	}
	if err := d.Join(); err != nil {
		return 0, 0, err
	}
	elapsed := time.Since(start)

	out := make([]float32, m*k)
	if err := compute.ReadSlice(d, out, c); err != nil {
		return 0, 0, err
	}
	var sum float64
	for _, v := range out {
		sum += float64(v)
	}
	return elapsed, sum, nil
}
