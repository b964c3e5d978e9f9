//cmd/seeder/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/unclebandit/phishing-campaigns/internal/config"
	"github.com/unclebandit/phishing-campaigns/internal/db"
	"github.com/unclebandit/phishing-campaigns/internal/logger"
)

func main() {
	files := flag.String("files", "seed/departments.sql,seed/users.sql", "comma-separated seed files, applied in order")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logg, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	ctx := context.Background()
	conn, err := db.Open(ctx, db.DSN(cfg), cfg.DBMaxOpenConns, logg)
	if err != nil {
		logg.Fatal("Failed to connect", zap.Error(err))
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn); err != nil {
		logg.Fatal("Failed to migrate", zap.Error(err))
	}

	for _, file := range strings.Split(*files, ",") {
		file = strings.TrimSpace(file)
		if file == "" {
			continue
		}
		content, err := os.ReadFile(file)
		if err != nil {
			logg.Fatal("Failed to read seed file", zap.String("file", file), zap.Error(err))
		}

		if _, err := conn.ExecContext(ctx, string(content)); err != nil {
			logg.Fatal("Failed to execute seed file", zap.String("file", file), zap.Error(err))
		}
		logg.Info("Seeded", zap.String("file", file))
	}

	logg.Info("Database seeding completed successfully")
}
