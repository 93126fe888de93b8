package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"linguamatch/backend/internal/config"
	"linguamatch/backend/internal/storage"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Small ops tool for poking at the matcher's state: inspect the wait queue,
// evict a stuck searcher, close a room early.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}

	s := storage.NewStorageService(db, rdb)

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <queue-size|evict|close-room> [args]")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "queue-size":
		size, err := s.QueueSize()
		if err != nil {
			log.Fatalf("Error reading queue: %v", err)
		}
		fmt.Printf("%d users waiting\n", size)
	case "evict":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin evict <user_id>")
			os.Exit(1)
		}
		userID := os.Args[2]
		if err := s.RemoveSearcher(userID); err != nil {
			log.Fatalf("Error evicting user: %v", err)
		}
		if err := s.ClearSearching(userID); err != nil {
			log.Fatalf("Error clearing searching flag: %v", err)
		}
		fmt.Printf("User %s evicted from the wait queue.\n", userID)
	case "close-room":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin close-room <room_id>")
			os.Exit(1)
		}
		roomID := os.Args[2]
		if _, err := s.GetRoomByID(roomID); err != nil {
			log.Fatalf("Error finding room: %v", err)
		}
		if err := s.CloseRoom(roomID); err != nil {
			log.Fatalf("Error closing room: %v", err)
		}
		fmt.Printf("Room %s closed.\n", roomID)
	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}
