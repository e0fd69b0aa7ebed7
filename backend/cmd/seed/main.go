package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"soceyo/backend/internal/auth"
	"soceyo/backend/internal/graph"
	"soceyo/backend/pkg/config"
	apperrors "soceyo/backend/pkg/errors"
	"soceyo/backend/pkg/logger"
)

var demoUsers = []string{"alice", "bob", "carol"}

func main() {
	password := flag.String("password", "Passw0rd!", "Password for every demo user")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Env, cfg.LogLevel); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting database seeding...")

	if err := auth.ValidatePassword(*password); err != nil {
		log.Fatal("Demo password rejected", zap.Error(err))
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	repo := graph.NewRepository(driver, cfg.Neo4jDatabase)
	defer repo.Close(context.Background())

	ctx := context.Background()
	if err := repo.Ping(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Warn("Failed to ensure schema", zap.Error(err))
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatal("Failed to hash password", zap.Error(err))
	}

	ids := make([]string, 0, len(demoUsers))
	for _, name := range demoUsers {
		user, err := seedUser(ctx, repo, name, hash)
		if err != nil {
			log.Fatal("Failed to seed user", zap.String("username", name), zap.Error(err))
		}
		log.Info("User ready", zap.String("username", user.Username), zap.String("user_id", user.ID))
		ids = append(ids, user.ID)
	}

	conv, err := repo.CreateConversation(ctx, graph.NewConversation{IsGroup: true, MemberIDs: ids})
	if err != nil {
		log.Fatal("Failed to create conversation", zap.Error(err))
	}

	if _, err := repo.CreateMessage(ctx, graph.NewMessage{
		SenderID:       ids[0],
		ConversationID: conv.ID,
		Content:        "Welcome to soceyo!",
	}); err != nil {
		log.Fatal("Failed to create welcome message", zap.Error(err))
	}

	log.Info("Seeding completed successfully!",
		zap.String("conversation_id", conv.ID),
		zap.Int("users", len(ids)))
}

// seedUser creates the demo user or returns the existing one
func seedUser(ctx context.Context, repo *graph.Repository, username, hash string) (*graph.User, error) {
	email := username + "@example.com"
	user, err := repo.CreateUser(ctx, graph.NewUser{Username: username, Email: email, PasswordHash: hash})
	if err == nil {
		return user, nil
	}
	if !apperrors.IsConflict(err) {
		return nil, err
	}
	return repo.GetUserByEmail(ctx, email)
}
