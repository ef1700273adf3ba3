package main

import (
	"log"

	"github.com/MrSnakeDoc/hublink/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ hublink failed to start: %v", err)
	}
}
