package main // audit worker entry point

import (
	"log"

	"github.com/milpoint/milpoint/internal/queue"
)

// The worker tails the point.events queue and appends an audit line per
// lifecycle event.  It runs as its own process so a broker outage or a slow
// disk never backs up the API.
func main() {
	log.Printf("point audit worker starting")
	if err := queue.StartPointAuditConsumer(); err != nil {
		log.Fatal(err)
	}
}
