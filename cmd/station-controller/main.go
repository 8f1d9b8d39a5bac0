// Command station-controller runs the on-board environmental station: the
// ground-control link, actuators, threshold alerts and the light schedule.
package main

import (
	"log"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
