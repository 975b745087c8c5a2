// Command assemble runs one assembly from a metadata JSON document and
// prints a summary of the resulting dataset.
//
// Usage: assemble [-align] [-timeout 30m] <metadata.json>
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"rastercube/adapters/httpfetch"
	"rastercube/adapters/netcdf"
	"rastercube/adapters/s3"
	"rastercube/app"
	"rastercube/domain/core"
	"rastercube/domain/grid"
	"rastercube/domain/request"
	"rastercube/internal/config"
)

func main() {
	align := flag.Bool("align", false, "align mismatched grids to the first timestep by nearest neighbour")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall run timeout")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: assemble [-align] [-timeout 30m] <metadata.json>")
	}

	// Local overrides for retry and parallelism settings.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}

	meta, err := readMetadata(flag.Arg(0))
	if err != nil {
		log.Fatalf("metadata: %v", err)
	}
	if _, err := core.ParseRequestID(meta.DataRequestID.String()); err != nil {
		log.Fatalf("metadata: %v", err)
	}

	decoder := netcdf.NewStore()
	fetcher := httpfetch.NewStore(decoder, nil)
	defer fetcher.Close()

	opts := []app.Option{
		app.WithObjectStore(s3.NewLister(), s3.NewFactory(decoder)),
	}
	if *align {
		opts = append(opts, app.WithAlignment())
	}
	assembler := app.New(fetcher, cfg, opts...)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	dataset, diags, err := assembler.Assemble(ctx, meta)
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d)
	}
	if err != nil {
		log.Fatalf("assembly failed: %v", err)
	}

	printDataset(dataset)
}

func readMetadata(path string) (request.Metadata, error) {
	var meta request.Metadata

	var data []byte
	var err error
	if path == "-" {
		data, err = os.ReadFile("/dev/stdin")
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("parsing %s: %w", path, err)
	}
	return meta, nil
}

func printDataset(ds *grid.Dataset) {
	fmt.Printf("assembled %d variable(s)\n", ds.Len())
	for key, value := range ds.Attributes() {
		if value != "" {
			fmt.Printf("  %s = %s\n", key, value)
		}
	}

	for _, name := range ds.VariableNames() {
		array, _ := ds.Variable(name)
		fmt.Printf("\n%s (%s)", name, strings.Join(array.Dims(), ","))
		if array.HasTime() {
			times := array.Times()
			fmt.Printf(" %d timesteps %s .. %s",
				len(times),
				times[0].Format(time.RFC3339),
				times[len(times)-1].Format(time.RFC3339))
		}
		fmt.Println()

		summary, err := array.Summarize()
		if err != nil {
			fmt.Printf("  summary unavailable: %v\n", err)
			continue
		}
		fmt.Printf("  min=%g max=%g mean=%g n=%d\n",
			summary.Min, summary.Max, summary.Mean, summary.Count)
	}
}
