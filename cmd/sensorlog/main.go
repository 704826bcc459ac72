// SensorLog - Sensor Event Burst Detection
//
// SensorLog reads a security sensor's XML event log, filters the events,
// and reports bursts of activity.
package main

import (
	"os"

	"github.com/ccollicutt/sensorlog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
