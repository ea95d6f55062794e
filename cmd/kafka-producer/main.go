package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"github.com/courtside/ranking-service/internal/scoring"
)

// matchResultEvent mirrors the consumer's message format
type matchResultEvent struct {
	MatchID         string `json:"match_id"`
	Team1Score      int    `json:"team1_score"`
	Team2Score      int    `json:"team2_score"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

func main() {
	brokers := flag.String("brokers", "localhost:9092", "Comma-separated list of Kafka brokers")
	topic := flag.String("topic", "match-results", "Kafka topic to produce to")
	matchIDs := flag.String("match-ids", "", "Comma-separated match IDs to complete")
	count := flag.Int("count", 0, "Number of events to send (0 = one per match ID)")
	rate := flag.Int("rate", 10, "Events per second")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ids := splitNonEmpty(*matchIDs)
	if len(ids) == 0 {
		logger.Error("no match IDs provided, use -match-ids")
		os.Exit(1)
	}

	total := *count
	if total == 0 {
		total = len(ids)
	}

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Return.Successes = true
	config.Producer.Flush.Frequency = 100 * time.Millisecond

	producer, err := sarama.NewSyncProducer(strings.Split(*brokers, ","), config)
	if err != nil {
		logger.Error("failed to create producer", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	logger.Info("producing match result events",
		"brokers", *brokers,
		"topic", *topic,
		"count", total,
		"rate", *rate,
	)

	interval := time.Second / time.Duration(*rate)
	sent := 0

	for i := 0; i < total; i++ {
		event := randomResult(ids[i%len(ids)])

		payload, err := json.Marshal(event)
		if err != nil {
			logger.Error("failed to marshal event", "error", err)
			continue
		}

		msg := &sarama.ProducerMessage{
			Topic: *topic,
			Key:   sarama.StringEncoder(event.MatchID),
			Value: sarama.ByteEncoder(payload),
		}

		partition, offset, err := producer.SendMessage(msg)
		if err != nil {
			logger.Error("failed to send message", "match_id", event.MatchID, "error", err)
			continue
		}

		sent++
		logger.Info("sent match result",
			"match_id", event.MatchID,
			"score", event.Team1Score,
			"opponent_score", event.Team2Score,
			"partition", partition,
			"offset", offset,
		)

		time.Sleep(interval)
	}

	logger.Info("done", "sent", sent, "total", total)
}

// randomResult builds a valid game result for the given match
func randomResult(matchID string) matchResultEvent {
	loser := rand.Intn(12) // 0..11
	r := scoring.ValidScoreRange(loser)
	winner := scoring.DefaultScore(r, true)
	if scoring.Validate(winner, loser) != nil {
		winner = r.Max
	}

	team1, team2 := winner, loser
	if rand.Intn(2) == 1 {
		team1, team2 = loser, winner
	}

	return matchResultEvent{
		MatchID:         matchID,
		Team1Score:      team1,
		Team2Score:      team2,
		DurationSeconds: 600 + rand.Intn(1800),
	}
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
