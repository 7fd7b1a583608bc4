package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/deliveryroute/deliveryroute/internal/api/models"
	"github.com/deliveryroute/deliveryroute/internal/app"
	"github.com/deliveryroute/deliveryroute/internal/config"
	"github.com/deliveryroute/deliveryroute/internal/planner"
	"github.com/deliveryroute/deliveryroute/pkg/geo"
)

type solveOptions struct {
	input   string
	timeout time.Duration
	asJSON  bool
}

func newSolveCmd(root *rootOptions) *cobra.Command {
	opts := &solveOptions{}

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve one route request against the configured routing providers",
		Long: "Reads a solve request ({\"locations\", \"demands\", \"vehicle_type\"}) and prints the\n" +
			"visiting order, per-leg figures and totals. Providers are configured through the\n" +
			"same environment variables as the API server.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := root.logger()
			if err != nil {
				return err
			}

			req, err := readSolveRequest(cmd.InOrStdin(), opts.input)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			components, err := app.Build(cfg, app.Options{Logger: log})
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			result, err := components.Planner.Plan(ctx, req)
			if err != nil {
				if errors.Is(err, planner.ErrCapacityExceeded) {
					return errors.New(planner.CapacityMessage)
				}
				return err
			}

			if opts.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result.Summary)
			}
			return printSummary(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVarP(&opts.input, "input", "i", "-", "Solve request JSON file, - for stdin")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 60*time.Second, "Upper bound for the whole solve")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the trip summary as JSON")

	return cmd
}

// readSolveRequest decodes a request in the API body format from path, or from stdin
// when path is "-".
func readSolveRequest(stdin io.Reader, path string) (planner.Request, error) {
	src := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return planner.Request{}, err
		}
		defer f.Close()
		src = f
	}

	var in models.SolveRequest
	if err := json.NewDecoder(src).Decode(&in); err != nil {
		return planner.Request{}, fmt.Errorf("decode solve request: %w", err)
	}
	if in.VehicleType == nil {
		return planner.Request{}, errors.New("vehicle_type is required")
	}

	req := planner.Request{
		Locations:   make([]geo.Coordinate, 0, len(in.Locations)),
		Demands:     make([]float64, 0, len(in.Demands)),
		VehicleType: float64(*in.VehicleType),
	}
	for i, loc := range in.Locations {
		if len(loc) != 2 {
			return planner.Request{}, fmt.Errorf("locations[%d] must be a [latitude, longitude] pair", i)
		}
		req.Locations = append(req.Locations, geo.Coordinate{Lat: loc[0], Lon: loc[1]})
	}
	for _, d := range in.Demands {
		req.Demands = append(req.Demands, float64(d))
	}
	return req, nil
}

func printSummary(out io.Writer, result *planner.Result) error {
	summary := result.Summary

	fmt.Fprintf(out, "order: %v\n", []int(summary.Route))
	if result.MatrixProvider != "" {
		fmt.Fprintf(out, "matrices: %s\n", result.MatrixProvider)
	}
	if !result.PathAvailable {
		fmt.Fprintln(out, "path: unavailable")
	}
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "FROM\tTO\tKM\tMIN\tFUEL\t")
	for _, leg := range summary.Legs {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.1f\t%.2f\t\n", leg.From, leg.To, leg.DistanceKm, leg.DurationMin, leg.Fuel)
	}
	fmt.Fprintf(tw, "total\t\t%.2f\t%.1f\t%.2f\t\n", summary.TotalDistanceKm, summary.TotalDurationMin, summary.TotalFuel)
	return tw.Flush()
}
