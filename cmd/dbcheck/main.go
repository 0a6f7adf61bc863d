package main

import (
	"context"
	"log"
	"time"

	"github.com/careloop/careops-dashboard/internal/infrastructure/clients/postgres"
	"github.com/careloop/careops-dashboard/internal/infrastructure/clients/redis"
	"github.com/careloop/careops-dashboard/pkg/config"
)

// dbcheck verifies connectivity to the backing stores before deploys.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("PostgreSQL check failed: %v", err)
	}
	defer pgClient.Close()

	if err := pgClient.Ping(ctx); err != nil {
		log.Fatalf("PostgreSQL ping failed: %v", err)
	}
	log.Println("PostgreSQL: OK")

	var count int
	row := pgClient.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM patients")
	if err := row.Scan(&count); err != nil {
		log.Printf("patients table check failed (run migrations?): %v", err)
	} else {
		log.Printf("patients table: OK (%d rows)", count)
	}

	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Printf("Redis check failed: %v", err)
		} else {
			defer redisClient.Close()
			log.Println("Redis: OK")
		}
	}
}
