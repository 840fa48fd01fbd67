package repositories

import (
	"context"

	"user-server/db"
	"user-server/entities"
)

type userGormRepository struct {
	db db.Database
}

func NewUserGormRepository(database db.Database) UserRepository {
	return &userGormRepository{db: database}
}

func (r *userGormRepository) Create(ctx context.Context, user *entities.User) error {
	return translate(r.db.GetDB().WithContext(ctx).Create(user).Error, "create user")
}

func (r *userGormRepository) GetByID(ctx context.Context, id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.GetDB().WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, translate(err, "get user")
	}
	return &user, nil
}

func (r *userGormRepository) GetAll(ctx context.Context) ([]entities.User, error) {
	users := make([]entities.User, 0)
	err := r.db.GetDB().WithContext(ctx).Order("id ASC").Find(&users).Error
	if err != nil {
		return nil, translate(err, "list users")
	}
	return users, nil
}

func (r *userGormRepository) Update(ctx context.Context, id uint, email, username string) (*entities.User, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	res := r.db.GetDB().WithContext(ctx).Model(&entities.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"email":    email,
		"username": username,
	})
	if res.Error != nil {
		return nil, translate(res.Error, "update user")
	}
	// deleted since the lookup
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	user.Email = email
	user.Username = username
	return user, nil
}

func (r *userGormRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.GetDB().WithContext(ctx).Where("id = ?", id).Delete(&entities.User{})
	if res.Error != nil {
		return translate(res.Error, "delete user")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userGormRepository) Count(ctx context.Context, id uint) (int64, error) {
	var n int64
	err := r.db.GetDB().WithContext(ctx).Model(&entities.User{}).Where("id = ?", id).Count(&n).Error
	return n, translate(err, "count users")
}
