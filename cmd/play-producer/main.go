package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/playlog/internal/domain"
	"github.com/playlog/internal/kafka"
)

func main() {
	brokers := flag.String("brokers", "localhost:9094", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "playlog-plays", "Kafka topic")
	file := flag.String("file", "plays.json", "JSON file holding an array of plays")
	createdBy := flag.String("created-by", "", "Email recorded on plays that have none")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	plays, err := readPlays(*file, *createdBy)
	if err != nil {
		logger.Error("failed to read plays", "file", *file, "error", err)
		os.Exit(1)
	}

	producer, err := kafka.NewProducer(strings.Split(*brokers, ","), *topic, logger)
	if err != nil {
		logger.Error("failed to create producer", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sent, err := producer.Publish(ctx, plays)
	if closeErr := producer.Close(); closeErr != nil {
		logger.Error("failed to close producer", "error", closeErr)
	}
	if err != nil {
		logger.Error("publishing stopped", "sent", sent, "total", len(plays), "error", err)
		os.Exit(1)
	}

	fmt.Printf("published %d plays to %s\n", sent, *topic)
}

func readPlays(path, createdBy string) ([]domain.NewPlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var plays []domain.NewPlay
	if err := json.Unmarshal(data, &plays); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	for i := range plays {
		if plays[i].CreatedBy == "" {
			plays[i].CreatedBy = createdBy
		}
	}
	return plays, nil
}
