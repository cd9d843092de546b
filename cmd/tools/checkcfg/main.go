package main

import (
	"flag"
	"fmt"
	"os"

	"riskcore/internal/ops"
)

// checkcfg validates a JSON config file and prints the resolved limits.
func main() {
	path := flag.String("config", "", "Path to JSON config")
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: checkcfg -config <path>")
		os.Exit(2)
	}

	loaded, err := ops.Load(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("principals: operator=%s controller=%s issuer=%s settlement=%s\n",
		loaded.Principals.Operator, loaded.Principals.Controller,
		loaded.Principals.Issuer, loaded.Principals.Settlement)
	fmt.Printf("vault: utilizationCeiling=%dbps adapters=%v\n",
		loaded.Vault.UtilizationCeilingBps, loaded.Vault.Adapters)
	fmt.Printf("breaker: maxDailyLoss=%dbps unpauseCooldown=%ds\n",
		loaded.Breaker.MaxDailyLossBps, loaded.Breaker.UnpauseCooldownSec)
	fmt.Printf("exposure: defaultLimit=%dbps customLimits=%d\n",
		loaded.Exposure.DefaultLimitBps, len(loaded.Exposure.CustomLimits))
	fmt.Printf("reserve: balance=%d fee=%dbps\n",
		loaded.Reserve.Balance, loaded.Reserve.FeeBps)
	fmt.Printf("tiers: %d entries\n", len(loaded.Tiers))
	fmt.Printf("oracle: %d seeded prices\n", len(loaded.Oracle))
	fmt.Printf("features: journal=%v persistence=%v\n",
		loaded.Features.EnableJournal, loaded.Features.EnablePersistence)
	fmt.Println("config OK")
}
