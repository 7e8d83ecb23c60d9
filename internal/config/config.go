package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	JWTSecret          string
	MongoURI           string
	DBName             string
	SkipAuth           bool
	Environment        string
	AppId              string
	FSPath             string // Physical directory for attachment blobs
	FSURL              string // URL path prefix for attachment access
	StrictSequential   bool   // Reject out-of-turn decisions
	ReminderSchedule   string // Cron spec for the stale-approver sweep
	ReminderMaxAgeHrs  int    // Hours a pending approver may sit before re-notification
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:              getEnv("PORT", "8080"),
		JWTSecret:         getEnv("JWT_SECRET", "secret"),
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:            getEnv("DB_NAME", "go-approvals"),
		SkipAuth:          getEnv("SKIP_AUTH", "false") == "true",
		Environment:       getEnv("ENVIRONMENT", "development"),
		AppId:             getEnv("APP_ID", "go-approvals"),
		FSPath:            getEnv("FS_PATH", "./uploads"),
		FSURL:             getEnv("FS_URL", "/fs/uploads"),
		StrictSequential:  getEnv("STRICT_SEQUENTIAL", "true") == "true",
		ReminderSchedule:  getEnv("REMINDER_SCHEDULE", "@every 1h"),
		ReminderMaxAgeHrs: getEnvInt("REMINDER_MAX_AGE_HOURS", 24),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
