// Command degiro-returns computes realized capital gains from a DEGIRO
// account CSV export and prints the summary as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"degiro-returns/internal/pipeline"
)

func main() {
	csvPath := flag.String("file", "", "path to the DEGIRO Account.csv export")
	startDate := flag.String("start-date", "", "only include trades settled strictly after this date (dd/mm/YYYY)")
	endDate := flag.String("end-date", "", "only include trades settled strictly before this date (dd/mm/YYYY)")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if *csvPath == "" {
		log.Fatal("-file is required")
	}

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer logger.Sync()

	window, err := parseWindow(*startDate, *endDate)
	if err != nil {
		logger.Fatal("invalid date range", zap.Error(err))
	}

	summary, err := pipeline.ComputeReturns(context.Background(), logger, *csvPath, window)
	if err != nil {
		logger.Fatal("computing returns failed", zap.String("kind", string(pipeline.Classify(err))), zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		logger.Fatal("encoding summary", zap.Error(err))
	}
}

func parseWindow(start, end string) (pipeline.Window, error) {
	var w pipeline.Window
	if start != "" {
		t, err := time.Parse("02/01/2006", start)
		if err != nil {
			return w, err
		}
		w.Start = t
	}
	if end != "" {
		t, err := time.Parse("02/01/2006", end)
		if err != nil {
			return w, err
		}
		w.End = t
	}
	return w, nil
}
