package config

import (
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so host settings cannot leak in.
// Viper treats empty values as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for key, names := range envKeys {
		t.Setenv(strings.ToUpper(strings.ReplaceAll(key, ".", "_")), "")
		for _, name := range names {
			t.Setenv(name, "")
		}
	}
}

func TestClearEnvIsolatesHost(t *testing.T) {
	t.Setenv("CONTAINER_NAME", "from-host")
	t.Setenv("STORAGE_REGION", "ap-south-1")
	t.Setenv("DOCUMENT_DRIVER", "memory")
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Bucket != "videos" {
		t.Errorf("Bucket = %q, want videos", cfg.Storage.Bucket)
	}
	if cfg.Document.Driver != "mongo" {
		t.Errorf("Driver = %q, want mongo", cfg.Document.Driver)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 4000 {
		t.Errorf("Port = %d, want 4000", cfg.Server.Port)
	}
	if cfg.Server.MaxUploadBytes() != 50<<20 {
		t.Errorf("MaxUploadBytes = %d, want %d", cfg.Server.MaxUploadBytes(), 50<<20)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Storage.Bucket != "videos" {
		t.Errorf("Bucket = %q, want videos", cfg.Storage.Bucket)
	}
	if cfg.Document.Database != "video-db" {
		t.Errorf("Database = %q, want video-db", cfg.Document.Database)
	}
	if cfg.Document.Videos != "videos" || cfg.Document.Comments != "comments" || cfg.Document.Users != "users" {
		t.Errorf("collections = %q/%q/%q", cfg.Document.Videos, cfg.Document.Comments, cfg.Document.Users)
	}
	if cfg.Document.Driver != "mongo" {
		t.Errorf("Driver = %q, want mongo", cfg.Document.Driver)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("MAX_UPLOAD_MB", "200")
	t.Setenv("CONTAINER_NAME", "clips")
	t.Setenv("DB_NAME", "clips-db")
	t.Setenv("COMMENTS_COLLECTION", "remarks")
	t.Setenv("DOCUMENT_DRIVER", "SQLite")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr() != ":8081" {
		t.Errorf("Addr = %q, want :8081", cfg.Server.Addr())
	}
	if cfg.Server.MaxUploadMB != 200 {
		t.Errorf("MaxUploadMB = %d, want 200", cfg.Server.MaxUploadMB)
	}
	if cfg.Storage.Bucket != "clips" {
		t.Errorf("Bucket = %q, want clips", cfg.Storage.Bucket)
	}
	if cfg.Document.Database != "clips-db" {
		t.Errorf("Database = %q, want clips-db", cfg.Document.Database)
	}
	if cfg.Document.Comments != "remarks" {
		t.Errorf("Comments = %q, want remarks", cfg.Document.Comments)
	}
	if cfg.Document.Driver != "sqlite" {
		t.Errorf("Driver = %q, want sqlite", cfg.Document.Driver)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Errorf("JWTSecret = %q", cfg.Auth.JWTSecret)
	}
}

func TestLoadConnectionString(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_CONNECTION_STRING", "Endpoint=http://localhost:9000;AccessKey=minio;SecretKey=minio123;Region=eu-west-1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Storage{
		Bucket:    "videos",
		Region:    "eu-west-1",
		Endpoint:  "http://localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
	}
	if cfg.Storage != want {
		t.Errorf("Storage = %+v, want %+v", cfg.Storage, want)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown driver", "DOCUMENT_DRIVER", "cassandra"},
		{"zero upload size", "MAX_UPLOAD_MB", "0"},
		{"bad connection string", "STORAGE_CONNECTION_STRING", "Endpoint"},
		{"unknown connection key", "STORAGE_CONNECTION_STRING", "Colour=blue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Fatalf("Load with %s=%q succeeded, want error", tt.key, tt.val)
			}
		})
	}
}
