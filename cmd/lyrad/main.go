package main

import (
	"github.com/joho/godotenv"

	"github.com/akshay-abraham/lyra/internal/cli"
)

func main() {
	// Best-effort .env load; provider keys usually live there in dev.
	_ = godotenv.Load()

	cli.Execute()
}
