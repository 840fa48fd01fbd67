package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"user-server/entities"
)

// MemoryStore keeps users and books in process memory. It enforces the same
// unique and foreign key rules as the SQL schema, so it can stand in for a
// database when running locally or in tests.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[uint]entities.User
	books      map[uint]entities.Book
	nextUserID uint
	nextBookID uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[uint]entities.User),
		books:      make(map[uint]entities.Book),
		nextUserID: 1,
		nextBookID: 1,
	}
}

func (s *MemoryStore) Users() UserRepository { return &userMemoryRepository{s: s} }
func (s *MemoryStore) Books() BookRepository { return &bookMemoryRepository{s: s} }

// uniqueConflict must be called with s.mu held. self is skipped so a user can
// keep its own values on update.
func (s *MemoryStore) uniqueConflict(self uint, email, username string) error {
	for _, u := range s.users {
		if u.ID != self && u.Email == email {
			return &IntegrityError{
				Kind:       KindUnique,
				Field:      "email",
				Constraint: "idx_users_email",
				Detail:     fmt.Sprintf("Key (email)=(%s) already exists.", email),
			}
		}
	}
	for _, u := range s.users {
		if u.ID != self && u.Username == username {
			return &IntegrityError{
				Kind:       KindUnique,
				Field:      "username",
				Constraint: "idx_users_username",
				Detail:     fmt.Sprintf("Key (username)=(%s) already exists.", username),
			}
		}
	}
	return nil
}

type userMemoryRepository struct {
	s *MemoryStore
}

func (r *userMemoryRepository) Create(_ context.Context, user *entities.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.uniqueConflict(0, user.Email, user.Username); err != nil {
		return err
	}
	user.ID = r.s.nextUserID
	r.s.nextUserID++
	stored := *user
	stored.Books = nil
	r.s.users[user.ID] = stored
	return nil
}

func (r *userMemoryRepository) GetByID(_ context.Context, id uint) (*entities.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *userMemoryRepository) GetAll(_ context.Context) ([]entities.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	users := make([]entities.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *userMemoryRepository) Update(_ context.Context, id uint, email, username string) (*entities.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := r.s.uniqueConflict(id, email, username); err != nil {
		return nil, err
	}
	u.Email = email
	u.Username = username
	r.s.users[id] = u
	return &u, nil
}

func (r *userMemoryRepository) Delete(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.users, id)
	for bookID, b := range r.s.books {
		if b.AuthorID == id {
			delete(r.s.books, bookID)
		}
	}
	return nil
}

func (r *userMemoryRepository) Count(_ context.Context, id uint) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, ok := r.s.users[id]; ok {
		return 1, nil
	}
	return 0, nil
}

type bookMemoryRepository struct {
	s *MemoryStore
}

func (r *bookMemoryRepository) Create(_ context.Context, book *entities.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[book.AuthorID]; !ok {
		return &IntegrityError{
			Kind:       KindForeignKey,
			Field:      "author_id",
			Constraint: "fk_users_books",
			Detail:     fmt.Sprintf(`Key (author_id)=(%d) is not present in table "users".`, book.AuthorID),
		}
	}
	now := time.Now().UTC()
	book.ID = r.s.nextBookID
	r.s.nextBookID++
	book.CreatedAt = now
	book.UpdatedAt = now
	r.s.books[book.ID] = *book
	return nil
}

func (r *bookMemoryRepository) GetByID(_ context.Context, id uint) (*entities.Book, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.books[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (r *bookMemoryRepository) GetByAuthorID(_ context.Context, authorID uint) ([]entities.Book, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	books := make([]entities.Book, 0)
	for _, b := range r.s.books {
		if b.AuthorID == authorID {
			books = append(books, b)
		}
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID > books[j].ID })
	return books, nil
}

func (r *bookMemoryRepository) Delete(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.books[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.books, id)
	return nil
}
