package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   Server
	Storage  Storage
	Document Document
	Auth     Auth
}

type Server struct {
	Port            int
	MaxUploadMB     int64
	ShutdownTimeout time.Duration
}

// Storage describes the S3-compatible bucket that holds the video files.
type Storage struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Document selects and configures the document database driver.
type Document struct {
	Driver     string
	Endpoint   string
	User       string
	Key        string
	Database   string
	Videos     string
	Comments   string
	Users      string
	SQLitePath string
}

type Auth struct {
	IdentityEndpoint string
	JWTSecret        string
}

// MaxUploadBytes is the request body ceiling for video uploads.
func (s Server) MaxUploadBytes() int64 {
	return s.MaxUploadMB << 20
}

func (s Server) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

var envKeys = map[string][]string{
	"server.port":               {"PORT", "SERVER_PORT"},
	"server.max_upload_mb":      {"MAX_UPLOAD_MB"},
	"server.shutdown_timeout":   {"SHUTDOWN_TIMEOUT"},
	"storage.bucket":            {"STORAGE_BUCKET", "CONTAINER_NAME"},
	"storage.region":            {"STORAGE_REGION", "AWS_REGION"},
	"storage.endpoint":          {"STORAGE_ENDPOINT"},
	"storage.access_key":        {"STORAGE_ACCESS_KEY"},
	"storage.secret_key":        {"STORAGE_SECRET_KEY"},
	"storage.connection_string": {"STORAGE_CONNECTION_STRING"},
	"document.driver":           {"DOCUMENT_DRIVER"},
	"document.endpoint":         {"DOCUMENT_ENDPOINT", "MONGO_URI"},
	"document.user":             {"DOCUMENT_USER"},
	"document.key":              {"DOCUMENT_KEY"},
	"document.database":         {"DOCUMENT_DATABASE", "DB_NAME"},
	"document.videos":           {"VIDEOS_COLLECTION"},
	"document.comments":         {"COMMENTS_COLLECTION"},
	"document.users":            {"USERS_COLLECTION"},
	"document.sqlite_path":      {"SQLITE_PATH"},
	"auth.identity_endpoint":    {"IDENTITY_ENDPOINT"},
	"auth.jwt_secret":           {"JWT_SECRET"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 4000)
	v.SetDefault("server.max_upload_mb", 50)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("storage.bucket", "videos")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("document.driver", "mongo")
	v.SetDefault("document.endpoint", "mongodb://localhost:27017")
	v.SetDefault("document.database", "video-db")
	v.SetDefault("document.videos", "videos")
	v.SetDefault("document.comments", "comments")
	v.SetDefault("document.users", "users")
	v.SetDefault("document.sqlite_path", "video.db")
}

// Load reads an optional .env file and config.yaml, then applies environment
// overrides on top of the defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("cmd/config/")
	v.AddConfigPath(".")
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envKeys {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Server: Server{
			Port:            v.GetInt("server.port"),
			MaxUploadMB:     v.GetInt64("server.max_upload_mb"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Storage: Storage{
			Bucket:    v.GetString("storage.bucket"),
			Region:    v.GetString("storage.region"),
			Endpoint:  v.GetString("storage.endpoint"),
			AccessKey: v.GetString("storage.access_key"),
			SecretKey: v.GetString("storage.secret_key"),
		},
		Document: Document{
			Driver:     strings.ToLower(v.GetString("document.driver")),
			Endpoint:   v.GetString("document.endpoint"),
			User:       v.GetString("document.user"),
			Key:        v.GetString("document.key"),
			Database:   v.GetString("document.database"),
			Videos:     v.GetString("document.videos"),
			Comments:   v.GetString("document.comments"),
			Users:      v.GetString("document.users"),
			SQLitePath: v.GetString("document.sqlite_path"),
		},
		Auth: Auth{
			IdentityEndpoint: v.GetString("auth.identity_endpoint"),
			JWTSecret:        v.GetString("auth.jwt_secret"),
		},
	}

	if cs := v.GetString("storage.connection_string"); cs != "" {
		if err := cfg.Storage.applyConnectionString(cs); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyConnectionString fills the storage settings from a
// "Endpoint=...;AccessKey=...;SecretKey=...;Region=..." string. Keys are
// case-insensitive; unknown keys are rejected.
func (s *Storage) applyConnectionString(cs string) error {
	for _, part := range strings.Split(cs, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return fmt.Errorf("storage connection string: malformed segment %q", part)
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "endpoint":
			s.Endpoint = value
		case "accesskey":
			s.AccessKey = value
		case "secretkey":
			s.SecretKey = value
		case "region":
			s.Region = value
		case "bucket":
			s.Bucket = value
		default:
			return fmt.Errorf("storage connection string: unknown key %q", key)
		}
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Document.Driver {
	case "mongo", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown document driver %q", c.Document.Driver)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size %dMB", c.Server.MaxUploadMB)
	}
	if c.Storage.Bucket == "" {
		return errors.New("storage bucket is required")
	}
	return nil
}
