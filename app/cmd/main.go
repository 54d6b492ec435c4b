package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"f1gpt/app/server"
	"f1gpt/config"

	"github.com/joho/godotenv"
)

func init() {
	// Missing .env is fine when the environment is set by the platform.
	_ = godotenv.Load()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	s := server.NewServer(cfg)

	go func() {
		if err := s.Run(); err != nil {
			log.Fatal("server failed: ", err)
		}
	}()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	<-sigch
	log.Println("Received shutdown signal, shutting down server...")
	s.Stop()
}
