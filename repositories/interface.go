package repositories

import (
	"context"

	"user-server/entities"
)

// UserRepository owns storage of users. Lookups that match nothing return
// ErrNotFound; uniqueness violations return *IntegrityError.
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uint) (*entities.User, error)
	GetAll(ctx context.Context) ([]entities.User, error)
	Update(ctx context.Context, id uint, email, username string) (*entities.User, error)
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context, id uint) (int64, error)
}

type BookRepository interface {
	Create(ctx context.Context, book *entities.Book) error
	GetByID(ctx context.Context, id uint) (*entities.Book, error)
	GetByAuthorID(ctx context.Context, authorID uint) ([]entities.Book, error)
	Delete(ctx context.Context, id uint) error
}
