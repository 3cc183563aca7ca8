package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-relay/api"
	"chat-relay/auth"
	"chat-relay/gateway"
	"chat-relay/relay"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the whole process and owns its lifecycle, so every defer fires
// before the exit code is decided.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories
	roomRepository, err := repositories.NewRoomRepository(db)
	if err != nil {
		return fmt.Errorf("room repository: %w", err)
	}
	defer func() { _ = roomRepository.Close() }()
	messageRepository := repositories.NewMessageRepository(db, log)
	userRepository := repositories.NewUserRepository(db)

	// 4. Relay & Registry
	registry := runtime.NewRegistry()
	publisher := relay.NewPublisher(log, config.AMQPURL, config.RelayExchange)
	defer publisher.Close()
	subscriber := relay.NewSubscriber(log, config.AMQPURL, config.RelayExchange,
		config.RelayQueue, registry, config.RelayMaxBackoff)

	// 5. Services & Gateway
	secret := []byte(config.JWTSecret)
	gate := auth.NewGate(secret, userRepository)
	authService := services.NewAuthService(userRepository, secret, config.AuthTokenDuration)
	membershipService := services.NewMembershipService(roomRepository)
	messageService := services.NewMessageService(messageRepository, publisher)
	gw := gateway.NewGateway(log, gate, membershipService, messageService,
		registry, config.AuthTimeout, config.ConnectionBufferSize)
	apiServer := api.NewServer(log, gate, authService, membershipService,
		messageService, publisher)

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 7. Supervised relay consumer
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(subscriber)
	go sup.Run(ctx)

	// 8. HTTP server: REST surface plus the WebSocket endpoint
	router := chi.NewRouter()
	router.Mount("/", apiServer.Routes())
	router.Get("/ws/chat/{chatroom_id}", gw.ServeWS)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: router}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 9. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 10. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
