package main

import (
	"context"
	"log"

	"github.com/viralforge/attribution-engine/internal/app/bootstrap"
)

func main() {
	ctx := context.Background()
	runtime, err := bootstrap.NewRuntime(ctx, "configs/default.yaml")
	if err != nil {
		log.Fatalf("bootstrap attribution engine: %v", err)
	}
	if err := runtime.Run(ctx); err != nil {
		log.Fatalf("run attribution engine: %v", err)
	}
}
