package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything resolved from the environment at startup.
type Config struct {
	Port          string
	AppEnv        string
	MaxUploadSize int64

	// StorageDir is the root of the analysis storage areas
	// (videos/, analysis_results/, reports/).
	StorageDir string
	// DBPath is the SQLite catalog database file.
	DBPath string

	ModelServerURL string

	// TrackerMode selects the screen-time tracker: "iou" (default) or the
	// approximate "bucket" mode.
	TrackerMode string
}

// Load reads an optional .env file and resolves the configuration.
func Load() (Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	c := Config{
		Port:           getenv("PORT", "8080"),
		AppEnv:         getenv("APP_ENV", "development"),
		StorageDir:     getenv("STORAGE_DIR", "./video_analysis_storage"),
		DBPath:         getenv("DB_PATH", "./promoscope.db"),
		ModelServerURL: getenv("MODEL_SERVER_URL", "http://localhost:9090"),
		TrackerMode:    getenv("TRACKER_MODE", "iou"),
	}

	maxUpload := getenv("MAX_UPLOAD_SIZE", "104857600")
	size, err := strconv.ParseInt(maxUpload, 10, 64)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MAX_UPLOAD_SIZE %q: %w", maxUpload, err)
	}
	c.MaxUploadSize = size

	if c.TrackerMode != "iou" && c.TrackerMode != "bucket" {
		return Config{}, fmt.Errorf("invalid TRACKER_MODE %q (want iou or bucket)", c.TrackerMode)
	}

	return c, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
