package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// GateConference is the default gate type.
	GateConference = "CONFERENCE"
	// GateEventPrefix prefixes event gate types (EVENT_<event_id>).
	GateEventPrefix = "EVENT_"

	defaultGatePassword = "demo123"
	defaultAdminPin     = "9999"
)

// QR image source modes for ticket emails.
const (
	QRImageDataURL   = "data_url"
	QRImageQRService = "qr_service"
	QRImageS3        = "s3"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Gate     GateConfig
	Admin    AdminConfig
	AWS      AWSConfig
	Email    EmailConfig

	// Warnings collects non-fatal problems found while loading (invalid gate type, default secrets).
	Warnings []string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/checkin?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	// AutoMigrate applies the embedded table migrations at startup. Stored
	// procedures are owned by the database and never created here.
	AutoMigrate bool
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds signing settings for gate session and admin tokens.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// GateConfig describes the physical entry point this deployment serves.
type GateConfig struct {
	Type          string // CONFERENCE or EVENT_<id>
	ScannerDevice string
	Password      string // plain text or bcrypt hash
}

// AdminConfig holds admin override and issuance access settings.
type AdminConfig struct {
	Pin              string
	MasterAdminEmail string
}

// AWSConfig holds credentials for the QR image bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	QRBucket             string
	PresignExpireMinutes int
}

// EmailConfig for SMTP delivery of ticket emails.
type EmailConfig struct {
	User        string
	Pass        string
	FromAddress string
	FromName    string
	SMTPHost    string
	SMTPPort    int
	QRImageMode string
}

// Configured reports whether SMTP credentials are present.
func (c EmailConfig) Configured() bool {
	return c.User != "" && c.Pass != ""
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// IsEventGate reports whether the gate serves a specific event.
func (g GateConfig) IsEventGate() bool {
	return strings.HasPrefix(g.Type, GateEventPrefix)
}

// DisplayName returns the gate label shown to operators.
func (g GateConfig) DisplayName() string {
	return GateDisplayName(g.Type)
}

// GateDisplayName formats a gate type for display: EVENT_hack_night -> HACK NIGHT.
func GateDisplayName(gateType string) string {
	if gateType == GateConference {
		return GateConference
	}
	if strings.HasPrefix(gateType, GateEventPrefix) {
		return strings.ToUpper(strings.ReplaceAll(strings.TrimPrefix(gateType, GateEventPrefix), "_", " "))
	}
	return gateType
}

// NormalizeGateType validates a gate type. Invalid values fall back to CONFERENCE
// and ok is false.
func NormalizeGateType(raw string) (gate string, ok bool) {
	gate = strings.TrimSpace(raw)
	if gate == "" {
		return GateConference, true
	}
	if gate != GateConference && !strings.HasPrefix(gate, GateEventPrefix) {
		return GateConference, false
	}
	return gate, true
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)
	return FromEnv()
}

// FromEnv builds the configuration from the current process environment only.
func FromEnv() (*Config, error) {
	var warnings []string

	gateType, ok := NormalizeGateType(os.Getenv("GATE_TYPE"))
	if !ok {
		warnings = append(warnings, fmt.Sprintf("invalid GATE_TYPE %q: must be CONFERENCE or EVENT_<id>, defaulting to CONFERENCE", os.Getenv("GATE_TYPE")))
	}
	gatePassword := os.Getenv("GATE_PASSWORD")
	if gatePassword == "" {
		warnings = append(warnings, "GATE_PASSWORD not set, using default")
		gatePassword = defaultGatePassword
	}
	adminPin := os.Getenv("ADMIN_PIN")
	if adminPin == "" {
		warnings = append(warnings, "ADMIN_PIN not set, using default")
		adminPin = defaultAdminPin
	}

	emailUser := strings.TrimSpace(os.Getenv("EMAIL_USER"))
	fromAddress := getEnv("FROM_EMAIL", emailUser)
	if fromAddress == "" {
		fromAddress = "noreply@yatra2026.com"
	}

	qrMode := getEnv("QR_IMAGE_MODE", QRImageDataURL)
	switch qrMode {
	case QRImageDataURL, QRImageQRService, QRImageS3:
	default:
		return nil, fmt.Errorf("invalid QR_IMAGE_MODE %q", qrMode)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "checkin"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			AutoMigrate: getEnv("DB_AUTO_MIGRATE", "false") == "true",
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 16),
		},
		Gate: GateConfig{
			Type:          gateType,
			ScannerDevice: getEnv("SCANNER_DEVICE", "Scanner-1"),
			Password:      gatePassword,
		},
		Admin: AdminConfig{
			Pin:              adminPin,
			MasterAdminEmail: strings.ToLower(getEnv("MASTER_ADMIN_EMAIL", "")),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", ""),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			QRBucket:             getEnv("AWS_S3_QR_BUCKET", "yatra-ticket-qr"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 60*24*7),
		},
		Email: EmailConfig{
			User:        emailUser,
			Pass:        os.Getenv("EMAIL_PASS"),
			FromAddress: fromAddress,
			FromName:    getEnv("EMAIL_FROM_NAME", "YATRA 2026"),
			SMTPHost:    getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:    getEnvInt("SMTP_PORT", 465),
			QRImageMode: qrMode,
		},
		Warnings: warnings,
	}
	if cfg.Email.QRImageMode == QRImageS3 && cfg.AWS.Region == "" {
		return nil, fmt.Errorf("QR_IMAGE_MODE=s3 requires AWS_REGION")
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
