package usecases

import (
	"context"
	"fmt"

	"user-server/entities"
	"user-server/repositories"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// Notifier receives user lifecycle events after the change is stored.
type Notifier interface {
	Notify(eventType string, payload interface{})
}

type UserUseCase struct {
	UserRepo repositories.UserRepository
	BookRepo repositories.BookRepository
	notifier Notifier
	log      *logrus.Logger
}

func NewUserUseCase(userRepo repositories.UserRepository, bookRepo repositories.BookRepository, notifier Notifier, log *logrus.Logger) *UserUseCase {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &UserUseCase{
		UserRepo: userRepo,
		BookRepo: bookRepo,
		notifier: notifier,
		log:      log,
	}
}

func (uc *UserUseCase) notify(eventType string, user *entities.User) {
	if uc.notifier == nil {
		return
	}
	uc.notifier.Notify(eventType, user.Public())
}

func (uc *UserUseCase) logConflict(op string, err error) {
	var ie *repositories.IntegrityError
	if errors.As(err, &ie) {
		uc.log.WithFields(logrus.Fields{
			"op":         op,
			"kind":       ie.Kind,
			"field":      ie.Field,
			"constraint": ie.Constraint,
		}).Info("integrity conflict")
	}
}

// ListUsers returns every user; an empty table yields an empty slice.
func (uc *UserUseCase) ListUsers(ctx context.Context) ([]entities.User, error) {
	return uc.UserRepo.GetAll(ctx)
}

// GetUser retrieves a user by ID
func (uc *UserUseCase) GetUser(ctx context.Context, id uint) (*entities.User, error) {
	return uc.UserRepo.GetByID(ctx, id)
}

// CreateUser validates and stores a new user. The password is kept as given.
func (uc *UserUseCase) CreateUser(ctx context.Context, email, username, password string) (*entities.User, error) {
	var fields []FieldError
	fields = check(fields, "email", email, "required,email")
	fields = check(fields, "username", username, "required")
	fields = check(fields, "password", password, "required")
	if err := validationResult(fields); err != nil {
		return nil, err
	}

	user := &entities.User{Email: email, Username: username, Password: password}
	if err := uc.UserRepo.Create(ctx, user); err != nil {
		uc.logConflict("create_user", err)
		return nil, err
	}

	uc.log.WithField("user_id", user.ID).Info("user created")
	uc.notify(EventUserCreated, user)
	return user, nil
}

// UpdateUser rewrites email and username together.
func (uc *UserUseCase) UpdateUser(ctx context.Context, id uint, email, username string) (*entities.User, error) {
	var fields []FieldError
	fields = check(fields, "email", email, "required,email")
	fields = check(fields, "username", username, "required")
	if err := validationResult(fields); err != nil {
		return nil, err
	}

	user, err := uc.UserRepo.Update(ctx, id, email, username)
	if err != nil {
		uc.logConflict("update_user", err)
		return nil, err
	}

	uc.log.WithField("user_id", user.ID).Info("user updated")
	uc.notify(EventUserUpdated, user)
	return user, nil
}

// DeleteUser removes the user and, through the foreign key, their books.
func (uc *UserUseCase) DeleteUser(ctx context.Context, id uint) (string, error) {
	user, err := uc.UserRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if err := uc.UserRepo.Delete(ctx, id); err != nil {
		return "", err
	}

	uc.log.WithField("user_id", id).Info("user deleted")
	uc.notify(EventUserDeleted, user)
	return fmt.Sprintf("User %d deleted", id), nil
}

// ============= Book Use Cases =============

// ListBooks returns the books owned by a user.
func (uc *UserUseCase) ListBooks(ctx context.Context, userID uint) ([]entities.Book, error) {
	if _, err := uc.UserRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return uc.BookRepo.GetByAuthorID(ctx, userID)
}

// CreateBook stores a book under an existing user.
func (uc *UserUseCase) CreateBook(ctx context.Context, userID uint, book *entities.Book) error {
	var fields []FieldError
	fields = check(fields, "title", book.Title, "required,max=255")
	fields = check(fields, "genre", book.Genre, "required,max=255")
	fields = check(fields, "isbn", book.ISBN, "required,max=13")
	fields = check(fields, "average_rating", book.AverageRating, "gte=0,lte=5")
	fields = check(fields, "num_ratings", book.NumRatings, "gte=0")
	fields = check(fields, "image_url", book.ImageURL, "omitempty,url,max=255")
	if book.PublicationDate.IsZero() {
		fields = append(fields, FieldError{Field: "publication_date", Message: ruleMessage("required", "")})
	}
	if err := validationResult(fields); err != nil {
		return err
	}

	// Verify user exists
	if _, err := uc.UserRepo.GetByID(ctx, userID); err != nil {
		return err
	}

	book.ID = 0
	book.AuthorID = userID
	if err := uc.BookRepo.Create(ctx, book); err != nil {
		uc.logConflict("create_book", err)
		return err
	}

	uc.log.WithFields(logrus.Fields{"book_id": book.ID, "user_id": userID}).Info("book created")
	return nil
}

// DeleteBook deletes a book
func (uc *UserUseCase) DeleteBook(ctx context.Context, id uint) error {
	return uc.BookRepo.Delete(ctx, id)
}
