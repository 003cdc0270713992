package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/config"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/database"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/serializers"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
)

func main() {
	// Parse command line flags
	email := flag.String("email", "admin@foodgram.local", "Account email")
	username := flag.String("username", "admin", "Account username")
	password := flag.String("password", "", "Password for a new account (at least 8 characters)")
	flag.Parse()

	_ = godotenv.Load()
	conf, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	ctx := context.Background()
	db, err := database.InitDatabase(ctx, database.NewDatabaseConfig(conf))
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Promote an existing account or register a new one
	var user models.User
	err = db.Where("email = ?", *email).First(&user).Error
	switch {
	case err == nil:
		fmt.Printf("Found existing user: %s (ID: %d, Role: %s)\n", user.Email, user.ID, user.Role())
	case errors.Is(err, gorm.ErrRecordNotFound):
		if *password == "" {
			log.Fatal("-password is required to create a new account")
		}
		users := services.NewUserService(db, nil, services.NewFollowService(db))
		created, err := users.Register(ctx, serializers.UserWrite{
			Email:     *email,
			Username:  *username,
			FirstName: "Admin",
			LastName:  "Foodgram",
			Password:  *password,
		})
		if err != nil {
			log.Fatal("Failed to create user:", err)
		}
		user.ID = created.ID
	default:
		log.Fatal("Failed to look up user:", err)
	}

	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_staff", true).Error; err != nil {
		log.Fatal("Failed to promote user:", err)
	}

	fmt.Printf("✓ %s is now staff (ID: %d)\n", *email, user.ID)
	fmt.Println("\nObtain a token with:")
	fmt.Printf("curl -X POST http://localhost:%d/api/auth/token/login/ \\\n", conf.Port)
	fmt.Printf("  -H 'Content-Type: application/json' \\\n")
	fmt.Printf("  -d '{\"email\": \"%s\", \"password\": \"<password>\"}'\n", *email)
}
