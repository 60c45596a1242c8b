package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"racing-telemetry/ingestion/internal/pipeline"
)

// Prints the length and newest entry of every destination stream, to check
// that packets are arriving while the game is running.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file, using system environment variables")
	}

	opts, err := redis.ParseURL(os.Getenv("STREAM_CONNECTION_STRING"))
	if err != nil {
		log.Fatalf("STREAM_CONNECTION_STRING must be a redis:// URL: %v", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()

	fmt.Println("Connecting to Redis...")
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Connection failed: %v\n\nMake sure Redis is running:\n  docker-compose up -d redis", err)
	}
	fmt.Println("✓ Connected")

	fmt.Println("\n── Destination streams ─────────────────────────")
	total := int64(0)
	for _, stream := range pipeline.Destinations() {
		n, err := client.XLen(ctx, stream).Result()
		if err != nil {
			log.Fatalf("XLEN %s failed: %v", stream, err)
		}
		total += n

		if n == 0 {
			fmt.Printf("  · %-16s empty\n", stream)
			continue
		}

		last, err := client.XRevRangeN(ctx, stream, "+", "-", 1).Result()
		if err != nil || len(last) == 0 {
			log.Fatalf("XREVRANGE %s failed: %v", stream, err)
		}
		fmt.Printf("  ✓ %-16s %8d entries, last %s (%s)\n", stream, n, last[0].ID, entryAge(last[0].ID))
	}

	fmt.Printf("\n%d entries across %d streams\n", total, len(pipeline.Destinations()))
}

// entryAge reads the millisecond timestamp prefix of a stream entry id.
func entryAge(id string) string {
	var ms int64
	if _, err := fmt.Sscanf(id, "%d-", &ms); err != nil {
		return "unknown age"
	}
	return time.Since(time.UnixMilli(ms)).Truncate(time.Second).String() + " ago"
}
