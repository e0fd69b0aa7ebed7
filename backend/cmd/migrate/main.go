package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"soceyo/backend/internal/graph"
	"soceyo/backend/pkg/config"
	"soceyo/backend/pkg/logger"
)

const schemaVersion = "chat_schema_v1"

func main() {
	force := flag.Bool("force", false, "Force migration even if already applied")
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
	log.Info("Starting Neo4j schema migration...", zap.String("version", schemaVersion))

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

	session := driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: cfg.Neo4jDatabase})
	defer session.Close(ctx)

	if !*force {
		applied, err := migrationApplied(ctx, session)
		if err != nil {
			log.Fatal("Failed to check migration status", zap.Error(err))
		}
		if applied {
			log.Info("Migration already applied. Use -force to reapply.")
			return
		}
	}

	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}

	if err := markMigrationApplied(ctx, session, len(graph.Constraints())); err != nil {
		log.Warn("Failed to mark migration as applied", zap.Error(err))
	}

	log.Info("Migration completed successfully!")
}

func migrationApplied(ctx context.Context, session neo4j.SessionWithContext) (bool, error) {
	result, err := session.Run(ctx,
		`MATCH (m:Migration {version: $version}) RETURN m.applied_at AS applied_at`,
		map[string]any{"version": schemaVersion})
	if err != nil {
		return false, err
	}
	return result.Next(ctx), nil
}

func markMigrationApplied(ctx context.Context, session neo4j.SessionWithContext, statements int) error {
	_, err := session.Run(ctx, `
		MERGE (m:Migration {version: $version})
		SET m.applied_at = datetime(),
		    m.statements = $statements,
		    m.description = 'Chat users, conversations, messages and files'
	`, map[string]any{"version": schemaVersion, "statements": statements})
	return err
}
