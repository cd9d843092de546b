package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"riskcore/internal/journal"
)

// replay prints an audit journal back in sequence order, for inspecting
// what the engine committed and when.
func main() {
	dir := flag.String("dir", "testdata/journal", "Journal directory")
	prefix := flag.String("prefix", "", "Segment file prefix (default: audit)")
	kind := flag.String("kind", "", "Only print entries of this kind")
	showPayload := flag.Bool("payload", false, "Print raw payloads")
	flag.Parse()

	var index int
	err := journal.Replay(*dir, *prefix, func(e journal.RawEntry) error {
		if *kind != "" && e.Kind != *kind {
			return nil
		}
		index++
		ts := time.Unix(0, e.Ts).UTC().Format(time.RFC3339Nano)
		fmt.Printf("%06d seq=%d kind=%s ts=%s\n", index, e.Seq, e.Kind, ts)
		if *showPayload {
			fmt.Printf("       %s\n", e.Payload)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("replay failed: %v", err)
	}
	fmt.Printf("%d entries\n", index)
}
