package entities

import "time"

// Book belongs to a User through AuthorID. Rows are removed with their owner.
type Book struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title           string    `gorm:"type:varchar(255);not null" json:"title"`
	AuthorID        uint      `gorm:"not null;index" json:"author_id"`
	PublicationDate time.Time `gorm:"type:date;not null" json:"publication_date"`
	Genre           string    `gorm:"type:varchar(255);not null" json:"genre"`
	ISBN            string    `gorm:"column:isbn;type:varchar(13);not null" json:"isbn"`
	AverageRating   float64   `gorm:"not null;default:0" json:"average_rating"`
	NumRatings      int       `gorm:"not null;default:0" json:"num_ratings"`
	Description     string    `gorm:"type:text" json:"description"`
	ImageURL        string    `gorm:"type:varchar(255)" json:"image_url"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
