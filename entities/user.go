package entities

// User is the only resource with a full lifecycle. Email and username are
// unique; the index names are what the repositories key conflict detection on.
type User struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email    string `gorm:"type:varchar(255);uniqueIndex:idx_users_email;not null" json:"email"`
	Username string `gorm:"type:varchar(255);uniqueIndex:idx_users_username;not null" json:"username"`
	// Stored as provided, no hashing.
	Password string `gorm:"type:varchar(255);not null" json:"-"`
	Books    []Book `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
}

// UserView is the public representation of a user. It never carries the password.
type UserView struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// UserSummary is what POST /user answers with: no id, no password.
type UserSummary struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

func (u *User) Public() UserView {
	return UserView{ID: u.ID, Email: u.Email, Username: u.Username}
}

func (u *User) Summary() UserSummary {
	return UserSummary{Email: u.Email, Username: u.Username}
}
