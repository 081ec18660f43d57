package database

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/VarunVijay1912/inventory-exchange-backend/internal/config"
	"github.com/nats-io/nats.go"
)

var NATS *nats.Conn

// InitNATS connects the message-event publisher. NATS is optional; with no
// NATS_URL configured (or the broker down) events still reach connected
// socket clients and only the external fan-out is skipped.
func InitNATS() {
	url := config.AppConfig.NATSUrl
	if url == "" {
		log.Println("NATS_URL not set, message event bus disabled")
		return
	}

	nc, err := nats.Connect(url,
		nats.Name("inventory-exchange-backend"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		log.Printf("Warning: Failed to connect to NATS: %v. Message event bus disabled.", err)
		return
	}

	NATS = nc
	log.Println("Connected to NATS successfully")
}

// PublishEvent marshals payload to JSON and publishes it on subject.
// No-op when NATS is not configured.
func PublishEvent(subject string, payload interface{}) error {
	if NATS == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return NATS.Publish(subject, data)
}

func CloseNATS() {
	if NATS != nil {
		NATS.Drain()
	}
}
