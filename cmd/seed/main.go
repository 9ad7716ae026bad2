// Command seed inserts users into the record store. Accounts have no
// passwords; seeding is the only way users come into existence.
//
//	go run ./cmd/seed -username test
package main

import (
	"context"
	"flag"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/zots0127/filebin/internal/domain/entities"
	"github.com/zots0127/filebin/internal/infrastructure/repository"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "seed"})

	username := flag.String("username", "test", "username to create")
	dbPath := flag.String("db", "", "database path (defaults to DATABASE_PATH or ./filebin.db)")
	flag.Parse()

	_ = godotenv.Load()

	path := *dbPath
	if path == "" {
		path = os.Getenv("DATABASE_PATH")
	}
	if path == "" {
		path = "./filebin.db"
	}

	db, err := repository.OpenDB(path)
	if err != nil {
		logger.Fatal("opening database", "path", path, "err", err)
	}
	defer db.Close()

	user := &entities.User{ID: uuid.NewString(), Username: *username}
	if err := repository.NewUserRepository(db).Create(context.Background(), user); err != nil {
		logger.Fatal("seeding user", "username", *username, "err", err)
	}

	logger.Info("seeded user", "id", user.ID, "username", user.Username)
}
