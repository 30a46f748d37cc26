package model

import "github.com/Laisky/errors/v2"

// ErrInvalidCredentials indicates the login credentials are invalid.
// The same error is returned for an unknown account and a wrong
// password so account existence cannot be probed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrAccountExists indicates the registration account is already taken.
var ErrAccountExists = errors.New("account already exists")

// ErrUserNotFound indicates the requested user does not exist.
var ErrUserNotFound = errors.New("user not found")
