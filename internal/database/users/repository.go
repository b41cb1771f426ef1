// Package users provides database operations for user management.
//
// Users own collections and tag edits. Deleting a user removes everything
// the user owns and collects the shared tags that become unreferenced.
//
// # Usage
//
//	repo := users.NewRepository(db, bcrypt.DefaultCost)
//	err := repo.EnsureUser(ctx, "alice")
package users

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yodhcn/kikoeru-express/internal/auth"
	"github.com/yodhcn/kikoeru-express/internal/database/collections"
	"github.com/yodhcn/kikoeru-express/internal/database/tags"
	"github.com/yodhcn/kikoeru-express/internal/entities"
	"github.com/yodhcn/kikoeru-express/internal/storeerr"
)

// Repository handles all user database operations.
type Repository struct {
	db         *gorm.DB
	bcryptCost int
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB, bcryptCost int) *Repository {
	return &Repository{db: db, bcryptCost: bcryptCost}
}

// EnsureUser creates a passwordless account for name unless one exists.
func (r *Repository) EnsureUser(ctx context.Context, name string) error {
	const op = "ensure user"
	if strings.TrimSpace(name) == "" {
		return storeerr.Integrity(op, "user name must not be empty")
	}
	user := &entities.User{Name: name, Group: entities.UserGroupUser}
	if name == entities.DefaultUsername {
		user.Group = entities.UserGroupAdministrator
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(user).Error
	return storeerr.Classify(op, err)
}

// CreateUser creates an account with a password. The name must be new.
func (r *Repository) CreateUser(ctx context.Context, name, password string, group entities.UserGroup) (*entities.User, error) {
	const op = "create user"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, storeerr.Integrity(op, "user name must not be empty")
	}
	if group == "" {
		group = entities.UserGroupUser
	}

	hash, err := auth.HashPassword(password, r.bcryptCost)
	if err != nil {
		return nil, storeerr.Integrity(op, "%v", err)
	}

	user := &entities.User{Name: name, PasswordHash: hash, Group: group}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if storeerr.IsDuplicate(err) {
			return nil, storeerr.Conflict(op, "user %q already exists", name)
		}
		return nil, storeerr.Classify(op, err)
	}
	return user, nil
}

// UpdatePassword replaces the password of an existing account.
func (r *Repository) UpdatePassword(ctx context.Context, name, password string) error {
	const op = "update password"
	hash, err := auth.HashPassword(password, r.bcryptCost)
	if err != nil {
		return storeerr.Integrity(op, "%v", err)
	}

	result := r.db.WithContext(ctx).Model(&entities.User{}).
		Where("name = ?", name).
		Update("password_hash", hash)
	if result.Error != nil {
		return storeerr.Classify(op, result.Error)
	}
	if result.RowsAffected == 0 {
		return storeerr.NotFound(op, "user %q does not exist", name)
	}
	return nil
}

// Authenticate returns the user when the password matches.
func (r *Repository) Authenticate(ctx context.Context, name, password string) (*entities.User, error) {
	const op = "authenticate"
	user, err := r.GetUser(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return nil, storeerr.NotFound(op, "invalid user name or password")
		}
		return nil, storeerr.Classify(op, err)
	}
	return user, nil
}

// GetUser retrieves a user by name.
func (r *Repository) GetUser(ctx context.Context, name string) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&user).Error; err != nil {
		return nil, storeerr.Classify("get user", err)
	}
	return &user, nil
}

// ListUsers returns every account sorted by name.
func (r *Repository) ListUsers(ctx context.Context) ([]entities.User, error) {
	var list []entities.User
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error; err != nil {
		return nil, storeerr.Classify("list users", err)
	}
	return list, nil
}

// DeleteUser removes an account with its collections and tag edits. The
// built-in administrator cannot be deleted.
func (r *Repository) DeleteUser(ctx context.Context, name string) error {
	const op = "delete user"
	if name == entities.DefaultUsername {
		return storeerr.Conflict(op, "the built-in %q account cannot be deleted", name)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.User{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return storeerr.NotFound(op, "user %q does not exist", name)
		}

		if _, err := collections.DeleteOwnedBy(tx, name); err != nil {
			return err
		}
		if err := tags.PurgeUser(tx, name); err != nil {
			return err
		}
		return tx.Where("name = ?", name).Delete(&entities.User{}).Error
	})
	return storeerr.Classify(op, err)
}
