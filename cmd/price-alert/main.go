package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// @title Stock Price Alert API
// @version 1.0
// @description Manage stock price alerts watched by the price-alert monitor.
// @BasePath /api/v1
func main() {
	// A missing .env is fine; the environment and config file still apply.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
