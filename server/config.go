package main

import (
	"crypto/rand"
	"encoding/binary"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"blackjack-engine/server/engine"
	"blackjack-engine/server/judge"
	"blackjack-engine/server/table"
)

// Request caps for the HTTP API.
const (
	maxAPITrials = 20000
	maxAPIHands  = 20000
)

type Config struct {
	Judge judge.Config
	Hands int
	Seed  uint64

	DatabaseURL string
	AutoMigrate bool
	Port        string

	MaxSeconds int
	StopFile   string
}

func loadConfig() Config {
	_ = godotenv.Load()
	return Config{
		Judge: judge.Config{
			Trials:  atoiDef(os.Getenv("BJ_TRIALS"), judge.DefaultTrials),
			Workers: atoiDef(os.Getenv("BJ_WORKERS"), 0),
			Rules:   engine.Rules{DealerStandsOn: atoiDef(os.Getenv("BJ_DEALER_STAND"), 17)},
		},
		Hands:       atoiDef(os.Getenv("BJ_HANDS"), table.DefaultHands),
		Seed:        deckSeedFromEnvOrCrypto(),
		DatabaseURL: getenv("DATABASE_URL", ""),
		AutoMigrate: asBool(os.Getenv("AUTO_MIGRATE")),
		Port:        getenv("PORT", "8080"),
		MaxSeconds:  atoiDef(os.Getenv("MAX_SECONDS"), 0),
		StopFile:    os.Getenv("STOP_FILE"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func atoiDef(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		log.Printf("ignoring non-numeric value %q (using %d)", s, def)
		return def
	}
	return n
}
func asBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

//
// ===== randomness =====
//

func secureBaseSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err == nil {
		return binary.LittleEndian.Uint64(b[:]) ^ uint64(time.Now().UnixNano()) ^ uint64(os.Getpid())
	}
	return uint64(time.Now().UnixNano()) ^ 0xA5A5A5A5A5A5A5A5
}

// DECK_SEED accepts any signed or unsigned 64-bit decimal.
func deckSeedFromEnvOrCrypto() uint64 {
	if s := strings.TrimSpace(os.Getenv("DECK_SEED")); s != "" {
		if v, err := strconv.ParseUint(s, 10, 64); err == nil {
			return v
		}
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return uint64(v)
		}
		log.Printf("DECK_SEED=%q is not a number; using a random seed", s)
	}
	return secureBaseSeed()
}
