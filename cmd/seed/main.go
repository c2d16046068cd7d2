package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/voisoc/backend/internal/database"
	"github.com/voisoc/backend/internal/logger"
	"github.com/voisoc/backend/internal/seed"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	command := "dev"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "dev":
		run(func(s *seed.Seeder) error { return s.SeedDev() }, "Development database seeded")
	case "test":
		run(func(s *seed.Seeder) error { return s.SeedTest() }, "Test database seeded")
	case "clean":
		run(func(s *seed.Seeder) error { return s.Clean() }, "Seed data cleaned")
	default:
		fmt.Println("Usage: seed [dev|test|clean]")
		fmt.Println("  dev   - Seed development database with realistic data")
		fmt.Println("  test  - Seed test database with a fixed set of users")
		fmt.Println("  clean - Remove all seed data (use with caution)")
		os.Exit(1)
	}
}

func run(fn func(*seed.Seeder) error, doneMsg string) {
	if err := database.Initialize(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if err := fn(seed.NewSeeder(database.DB)); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println(doneMsg)
}
