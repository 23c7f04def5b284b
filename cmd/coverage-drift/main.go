package main

import (
	"fmt"
	"os"

	// Import to register the simulation
	_ "github.com/seabedlabs/auv-sim/cmd/coverage-drift/simulation"
)

func main() {
	fmt.Println("AUV Coverage Drift simulation registered. Use 'auv-sim run' to execute.")
	os.Exit(0)
}
