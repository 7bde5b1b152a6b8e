// Package users declares the user store contract and its Postgres, SQLite
// and in-memory implementations.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophgate/internal/server/models"
)

// Repository is read-mostly: the session core only looks users up.
// Create exists for developer seeding.
type Repository interface {
	// Create inserts user and fills its ID and CreatedAt. A duplicate email
	// yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail and GetByID return common.ErrorNotFound when absent.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
