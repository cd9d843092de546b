package main

import (
	"flag"
	"fmt"
	"log"

	"riskcore/internal/chaos"
)

func main() {
	seed := flag.Int64("seed", 0, "RNG seed (0=now)")
	deposit := flag.Int64("deposit", 10_000_000, "Pool deposit")
	rightsN := flag.Int("rights", 100, "Rights to issue")
	actions := flag.Int("actions", 10, "Actions per right")
	maxAmount := flag.Int64("max-amount", 100_000, "Max action amount")
	lossRate := flag.Float64("loss-rate", 0.4, "Loss probability per settlement [0-1]")
	reserveBalance := flag.Int64("reserve", 500_000, "Initial reserve balance")
	flag.Parse()

	report, err := chaos.Run(chaos.Config{
		Seed:            *seed,
		Deposit:         *deposit,
		Rights:          *rightsN,
		ActionsPerRight: *actions,
		MaxActionAmount: *maxAmount,
		LossRate:        *lossRate,
		ReserveBalance:  *reserveBalance,
	})
	if err != nil {
		log.Fatalf("chaos run failed: %v", err)
	}

	fmt.Printf("seed=%d\n", report.Seed)
	fmt.Printf("executed=%d denied=%d settled=%d liquidated=%d breakerTrips=%d\n",
		report.Executed, report.Denied, report.Settled, report.Liquidated, report.BreakerTrips)
	fmt.Printf("finalAssets=%d finalReserve=%d openAllocated=%d\n",
		report.FinalAssets, report.FinalReserve, report.OpenAllocated)
	if report.OpenAllocated != 0 {
		log.Fatalf("invariant violated: %d capital still allocated after all settlements", report.OpenAllocated)
	}
}
