// Command aqi converts PM2.5 concentrations to US EPA AQI scores offline.
package main

import (
	"os"

	"github.com/couchcryptid/aqi-monitor/cmd/aqi/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
