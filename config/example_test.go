package config_test

import (
	"context"
	"fmt"
	"log"

	"github.com/invoicekit/mediagate/config"
)

func ExampleLoad() {
	// Load with defaults only (no config file)
	cfg, err := config.Load(nil, nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Port: %d, Storage: %s\n", cfg.Server.Port, cfg.Storage.Type)
	// Output: Port: 8787, Storage: filesystem
}

func ExampleWithContext() {
	cfg, _ := config.Load(nil, nil)

	// Store config in context
	ctx := config.WithContext(context.Background(), cfg)

	// Retrieve later (e.g., in a subcommand)
	retrieved, err := config.FromContext(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Retrieved port: %d\n", retrieved.Server.Port)
	// Output: Retrieved port: 8787
}
