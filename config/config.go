package config

import (
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string

	// OrderedQueries selects the indexed descending chat-listing strategy.
	// When false, or when the index turns out to be missing at runtime, chat
	// listings use an unordered filter plus an in-memory sort.
	OrderedQueries bool

	// StrictAvailability gates advisor assignment on the isAvailable flag.
	// When false, existence of an advisor record is enough to be assignable.
	StrictAvailability bool
}

// New sets up all config related services
func New() *Config {

	//setup zap logger and replace default logger
	logger := zap.NewExample()
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:                os.Getenv("DB_URI"),
		DatabaseName:       os.Getenv("DB_NAME"),
		BaseURL:            os.Getenv("BASE_URL"),
		Port:               os.Getenv("PORT"),
		OrderedQueries:     os.Getenv("CHAT_ORDERED_QUERIES") == "true",
		StrictAvailability: os.Getenv("ADVISOR_STRICT_AVAILABILITY") == "true",
	}

}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
}
