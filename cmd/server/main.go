package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"video-portal/cmd/config"
	"video-portal/pkg/auth"
	"video-portal/pkg/database"
	"video-portal/pkg/handlers"
	"video-portal/pkg/s3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize the document store
	store, err := database.Open(ctx, cfg.Document)
	if err != nil {
		log.Fatalf("Failed to open document store: %v", err)
	}

	objects, err := s3.New(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to create object store client: %v", err)
	}
	objects.EnsureContainer(ctx)

	h := handlers.New(handlers.Deps{
		Videos:         store.Videos,
		Comments:       store.Comments,
		Users:          store.Users,
		Objects:        objects,
		Identity:       auth.NewClient(cfg.Auth.IdentityEndpoint, nil),
		MaxUploadBytes: cfg.Server.MaxUploadBytes(),
		JWTSecret:      cfg.Auth.JWTSecret,
	})

	// Set up Gin router
	r := gin.Default()
	r.MaxMultipartMemory = 32 << 20
	h.Routes(r)

	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: r}
	go func() {
		log.Printf("Listening on %s (bucket %s, %s document store)", srv.Addr, objects.Bucket(), cfg.Document.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.Printf("Closing document store: %v", err)
	}
}
