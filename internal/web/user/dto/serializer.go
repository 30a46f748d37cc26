// Package dto holds the user app's outward-facing views.
package dto

import (
	"time"

	"github.com/Laisky/promptbox/internal/web/user/model"
)

// UserView is the public shape of a user, the password hash never leaves
// the service.
type UserView struct {
	ID        string    `json:"id"`
	Account   string    `json:"account"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserView builds the public view of a user.
func NewUserView(u *model.User) *UserView {
	return &UserView{
		ID:        u.GetID(),
		Account:   u.Account,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}
