package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"canvass-data/internal/config"
	"canvass-data/internal/database"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Applies the built-in versioned migrations, or an ad-hoc SQL file when one
// is given. Handy for bringing an empty database up without starting the
// service.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Cannot connect to database: %v", err)
	}
	defer db.Close()

	if len(os.Args) < 2 {
		logger, _ := zap.NewDevelopment()
		if err := database.Migrate(db, logger); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		fmt.Println("Migrations applied")
		return
	}

	sqlContent, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to read migration file: %v", err)
	}

	statements := strings.Split(string(sqlContent), ";")
	applied := 0
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" || strings.HasPrefix(stmt, "--") {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("Statement failed: %v\n%s", err, stmt)
		}
		applied++
	}
	fmt.Printf("Applied %d statements from %s\n", applied, os.Args[1])
}
