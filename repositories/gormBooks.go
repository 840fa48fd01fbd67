package repositories

import (
	"context"

	"user-server/db"
	"user-server/entities"
)

type bookGormRepository struct {
	db db.Database
}

func NewBookGormRepository(database db.Database) BookRepository {
	return &bookGormRepository{db: database}
}

func (r *bookGormRepository) Create(ctx context.Context, book *entities.Book) error {
	return translate(r.db.GetDB().WithContext(ctx).Create(book).Error, "create book")
}

func (r *bookGormRepository) GetByID(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.GetDB().WithContext(ctx).Where("id = ?", id).First(&book).Error
	if err != nil {
		return nil, translate(err, "get book")
	}
	return &book, nil
}

func (r *bookGormRepository) GetByAuthorID(ctx context.Context, authorID uint) ([]entities.Book, error) {
	books := make([]entities.Book, 0)
	err := r.db.GetDB().WithContext(ctx).Where("author_id = ?", authorID).Order("created_at DESC").Find(&books).Error
	if err != nil {
		return nil, translate(err, "list books")
	}
	return books, nil
}

func (r *bookGormRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.GetDB().WithContext(ctx).Where("id = ?", id).Delete(&entities.Book{})
	if res.Error != nil {
		return translate(res.Error, "delete book")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
