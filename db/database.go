package db

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Database interface {
	GetDB() *gorm.DB
	Close() error
}

type GormDatabase struct {
	DB *gorm.DB
}

func (g *GormDatabase) GetDB() *gorm.DB { return g.DB }

// Close releases the underlying connection pool.
func (g *GormDatabase) Close() error {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return errors.Wrap(err, "get database instance")
	}
	return sqlDB.Close()
}
