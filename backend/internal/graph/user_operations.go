package graph

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "soceyo/backend/pkg/errors"
)

// ============================================================================
// User Operations
// ============================================================================

const userReturn = `
	RETURN u.user_id AS user_id, u.username AS username, u.email AS email,
	       u.password_hash AS password_hash, u.full_name AS full_name, u.bio AS bio,
	       u.profile_photo AS profile_photo, u.created_at AS created_at
`

// CreateUser registers a user. Email and username must be unused.
func (r *Repository) CreateUser(ctx context.Context, in NewUser) (*User, error) {
	query := `
		OPTIONAL MATCH (existing:User)
		WHERE existing.email = $email OR existing.username = $username
		WITH count(existing) AS taken
		WHERE taken = 0
		CREATE (u:User {
			user_id: $userID,
			username: $username,
			email: $email,
			password_hash: $passwordHash,
			created_at: datetime($now)
		})
	` + userReturn

	records, err := r.write(ctx, "create user", query, map[string]interface{}{
		"userID":       uuid.New().String(),
		"username":     in.Username,
		"email":        strings.ToLower(in.Email),
		"passwordHash": in.PasswordHash,
		"now":          nowString(),
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NewConflict("email", "Email or username already registered")
	}

	user := userFromRecord(records[0])
	r.logger.Info("User created", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// GetUserByID fetches a user by id
func (r *Repository) GetUserByID(ctx context.Context, userID string) (*User, error) {
	record, err := r.single(ctx, "get user", `MATCH (u:User {user_id: $userID})`+userReturn, map[string]interface{}{
		"userID": userID,
	})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperrors.NewNotFound("user", userID)
	}
	return userFromRecord(record), nil
}

// GetUserByEmail fetches a user by e-mail, case-insensitively
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	record, err := r.single(ctx, "get user by email", `MATCH (u:User {email: $email})`+userReturn, map[string]interface{}{
		"email": strings.ToLower(email),
	})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperrors.NewNotFound("user", email)
	}
	return userFromRecord(record), nil
}

// GetUsersByIDs fetches every existing user among ids; unknown ids are skipped
func (r *Repository) GetUsersByIDs(ctx context.Context, ids []string) ([]User, error) {
	if len(ids) == 0 {
		return []User{}, nil
	}

	query := `
		MATCH (u:User)
		WHERE u.user_id IN $ids
	` + userReturn + `
		ORDER BY username
	`
	records, err := r.collect(ctx, "get users", query, map[string]interface{}{"ids": ids})
	if err != nil {
		return nil, err
	}

	users := make([]User, 0, len(records))
	for _, record := range records {
		users = append(users, *userFromRecord(record))
	}
	return users, nil
}

// UpdateUser applies a partial profile update
func (r *Repository) UpdateUser(ctx context.Context, userID string, update UserUpdate) (*User, error) {
	query := `
		MATCH (u:User {user_id: $userID})
		SET u.full_name = CASE WHEN $setFullName THEN $fullName ELSE u.full_name END,
		    u.bio = CASE WHEN $setBio THEN $bio ELSE u.bio END,
		    u.profile_photo = CASE WHEN $setPhoto THEN $photo ELSE u.profile_photo END
	` + userReturn

	params := map[string]interface{}{
		"userID":      userID,
		"setFullName": update.FullName != nil,
		"fullName":    derefString(update.FullName),
		"setBio":      update.Bio != nil,
		"bio":         derefString(update.Bio),
		"setPhoto":    update.ProfilePhoto != nil,
		"photo":       derefString(update.ProfilePhoto),
	}

	records, err := r.write(ctx, "update user", query, params)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NewNotFound("user", userID)
	}
	return userFromRecord(records[0]), nil
}

func userFromRecord(record *neo4j.Record) *User {
	return &User{
		ID:           getStringFromRecord(record, "user_id"),
		Username:     getStringFromRecord(record, "username"),
		Email:        getStringFromRecord(record, "email"),
		PasswordHash: getStringFromRecord(record, "password_hash"),
		FullName:     getStringFromRecord(record, "full_name"),
		Bio:          getStringFromRecord(record, "bio"),
		ProfilePhoto: getStringFromRecord(record, "profile_photo"),
		CreatedAt:    getTimeFromRecord(record, "created_at"),
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
