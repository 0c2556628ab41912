package main

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/budgetflow/backend/internal/bank"
	"github.com/budgetflow/backend/internal/events"
	"github.com/budgetflow/backend/internal/models"
	"github.com/budgetflow/backend/internal/router"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// gin uses debug as the default mode, we use release for
	// security reasons
	ginMode, ok := os.LookupEnv("GIN_MODE")
	if !ok {
		gin.SetMode("release")
	} else {
		gin.SetMode(ginMode)
	}

	// Log format can be explicitly set.
	// If it is not set, it defaults to human readable for development
	// and JSON for release
	logFormat, ok := os.LookupEnv("LOG_FORMAT")
	output := io.Writer(os.Stdout)
	if (!ok && gin.IsDebugging()) || (ok && logFormat == "human") {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if gin.IsDebugging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(output).With().Timestamp().Logger()

	// Create data directory
	dataDir := filepath.Join(".", "data")
	err := os.MkdirAll(dataDir, os.ModePerm)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	dsn, ok := os.LookupEnv("DB_DSN")
	if !ok {
		dsn = filepath.Join(dataDir, "gorm.db?_pragma=foreign_keys(1)")
	}

	// Connect to the database and migrate the schema
	db, err := models.Connect(dsn)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	err = models.Migrate(db)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	// Notifications go to Kafka when brokers are configured and to the
	// log otherwise. Notification failures never abort a workflow.
	if brokers, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
		events.Default = events.NewKafkaPublisher(strings.Fields(brokers))
		log.Info().Str("brokers", brokers).Msg("notifications are published to Kafka")
	}

	// Bank files are spooled to the local filesystem for pickup by the
	// bank transfer tooling.
	spoolDir, ok := os.LookupEnv("BANK_SPOOL_DIR")
	if !ok {
		spoolDir = filepath.Join(dataDir, "bank-spool")
	}
	bank.Default = bank.NewSpoolGenerator(spoolDir)

	// The base URL under which the API is reachable, used to build
	// resource links
	apiURL, ok := os.LookupEnv("API_URL")
	if !ok {
		apiURL = "http://localhost:8080"
	}

	baseURL, err := url.Parse(apiURL)
	if err != nil {
		log.Fatal().Msg("API_URL is not a valid URL")
	}

	r, teardown, err := router.Config(baseURL)
	defer teardown()
	if err != nil {
		log.Fatal().Msg(err.Error())
	}
	router.AttachRoutes(r.Group("/"))

	if err := r.Run(); err != nil {
		log.Fatal().Msg(err.Error())
	}
}
