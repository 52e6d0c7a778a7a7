package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Redis and RabbitMQ are optional collaborators:
// their variables may be left empty and the server runs without them.
type Config struct {
	Env           string // application environment (e.g. "dev", "prod")
	Addr          string // TCP address to listen on, e.g. ":5555"
	DBUser        string // database username
	DBPass        string // database password (optional)
	DBHost        string // database host address
	DBPort        string // database port number
	DBName        string // database name
	BcryptCost    int    // bcrypt cost for password hashing
	SeatRows      int    // seat grid rows provisioned per showtime
	SeatCols      int    // seat grid columns provisioned per showtime
	SessionTTLMin int    // session token lifetime in minutes; 0 = no expiry
	RabbitURL     string // AMQP URL for ticket events (optional)
	CacheTTLSec   int    // catalog cache entry lifetime in seconds
}

// Load reads configuration from environment variables. Required variables
// are enforced by must() and missing values cause the program to exit with
// a fatal log message. Optional values fall back to defaults.
func Load() Config {
	return Config{
		Env:           must("APP_ENV"),
		Addr:          must("APP_ADDR"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"), // empty allowed
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		BcryptCost:    mustInt("BCRYPT_COST"),
		SeatRows:      intOr("SEAT_ROWS", 5),
		SeatCols:      intOr("SEAT_COLS", 8),
		SessionTTLMin: intOr("SESSION_TTL_MIN", 0),
		RabbitURL:     os.Getenv("RABBITMQ_URL"),
		CacheTTLSec:   intOr("CATALOG_CACHE_TTL_SEC", 30),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// intOr returns the integer value of an optional environment variable, or
// def when the variable is unset or unparsable.
func intOr(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("config: ignoring invalid %s=%q, using %d", key, s, def)
		return def
	}
	return n
}
