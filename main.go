package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tournevent/dhlbridge/pkg/dhl"
)

var version = "0.0.1"

var requestFile string

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "dhlbridge",
	Short:   "DHL Express gateway - rating, tracking, shipping and landed cost",
	Version: version,
}

var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Get rate quotes (request JSON from -f or stdin)",
	RunE: withGateway(func(ctx context.Context, gw *dhl.Gateway, args []string) (interface{}, error) {
		var req dhl.RateRequest
		if err := readRequest(&req); err != nil {
			return nil, err
		}
		return gw.GetRate(ctx, &req)
	}),
}

var trackCmd = &cobra.Command{
	Use:   "track <tracking-id>",
	Short: "Track a shipment",
	Args:  cobra.ExactArgs(1),
	RunE: withGateway(func(ctx context.Context, gw *dhl.Gateway, args []string) (interface{}, error) {
		return gw.GetTracking(ctx, &dhl.TrackingRequest{TrackingID: args[0]})
	}),
}

var shipCmd = &cobra.Command{
	Use:   "ship",
	Short: "Create a shipment (request JSON from -f or stdin)",
	RunE: withGateway(func(ctx context.Context, gw *dhl.Gateway, args []string) (interface{}, error) {
		var req dhl.ShipmentRequest
		if err := readRequest(&req); err != nil {
			return nil, err
		}
		return gw.CreateShipment(ctx, &req)
	}),
}

var epodCmd = &cobra.Command{
	Use:   "epod <shipment-id>",
	Short: "Fetch the proof-of-delivery PDF",
	Args:  cobra.ExactArgs(1),
	RunE: withGateway(func(ctx context.Context, gw *dhl.Gateway, args []string) (interface{}, error) {
		return gw.GetEpod(ctx, &dhl.EpodRequest{ShipmentID: args[0]})
	}),
}

var landedCostCmd = &cobra.Command{
	Use:   "landed-cost",
	Short: "Estimate landed cost (request JSON from -f or stdin)",
	RunE: withGateway(func(ctx context.Context, gw *dhl.Gateway, args []string) (interface{}, error) {
		var req dhl.LandedCostRequest
		if err := readRequest(&req); err != nil {
			return nil, err
		}
		return gw.GetLandedCost(ctx, &req)
	}),
}

var validateAccountCmd = &cobra.Command{
	Use:   "validate-account [account...]",
	Short: "Probe account numbers against the carrier",
	RunE: withGateway(func(ctx context.Context, gw *dhl.Gateway, args []string) (interface{}, error) {
		accounts := args
		if len(accounts) == 0 {
			accounts = configuredAccounts()
		}
		if len(accounts) == 0 {
			return nil, fmt.Errorf("no account numbers given or configured")
		}
		return gw.ValidateAccounts(ctx, accounts)
	}),
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&requestFile, "file", "f", "", "request JSON file (defaults to stdin)")
	rootCmd.AddCommand(rateCmd, trackCmd, shipCmd, epodCmd, landedCostCmd, validateAccountCmd)
}

func readRequest(v interface{}) error {
	var r io.Reader = os.Stdin
	if requestFile != "" {
		f, err := os.Open(requestFile)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	return json.NewDecoder(r).Decode(v)
}

func printResult(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
