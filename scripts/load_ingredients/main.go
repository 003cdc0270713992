package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/config"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/database"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
)

// Loads a JSON array of {"name", "measurement_unit"} objects into the
// ingredient catalog. Ingredients already present are skipped.
func main() {
	path := flag.String("file", "data/ingredients.json", "Path to the ingredients JSON file")
	flag.Parse()

	log.SetFormatter(&log.JSONFormatter{})
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}

	conf, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	ctx := context.Background()
	db, err := database.InitDatabase(ctx, database.NewDatabaseConfig(conf))
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}

	f, err := os.Open(*path)
	if err != nil {
		log.WithError(err).Fatal("Failed to open ingredients file")
	}
	defer f.Close()

	loaded, err := services.NewCatalogService(db).LoadIngredients(ctx, f)
	if err != nil {
		log.WithError(err).Fatal("Failed to load ingredients")
	}
	log.WithFields(log.Fields{"file": *path, "loaded": loaded}).Info("Ingredients loaded")
}
