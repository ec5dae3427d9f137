package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the aggregate that owns a cart. Rows are provisioned by the auth
// service; this service only reads them.
type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	CartItems []CartItem `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// CurrentUser is the authenticated identity of a request. It is built once
// by the auth middleware and passed by value; core code never mutates it.
type CurrentUser struct {
	ID    uuid.UUID
	Email string
}
