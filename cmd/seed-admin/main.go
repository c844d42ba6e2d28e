package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/batchbook/batchbook-backend/internal/config"
	"github.com/batchbook/batchbook-backend/internal/database"
	"github.com/batchbook/batchbook-backend/internal/logger"
	"github.com/batchbook/batchbook-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// seed-admin creates (or resets) a local credentials account for the
// platform admin. The email still has to be present in ADMIN_EMAILS for
// admin routes to open up.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Seed Platform Admin ===")

	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println()
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	if err := userRepo.SetPassword(ctx, email, name, string(hash)); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed admin account")
	}

	fmt.Printf("Admin account %s seeded successfully\n", email)
	if !cfg.IsAdminEmail(email) {
		fmt.Println("Warning: this email is not in ADMIN_EMAILS; admin routes will stay closed")
	}
}
