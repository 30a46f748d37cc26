package model

import "github.com/Laisky/errors/v2"

// ErrProjectNotFound covers both a missing project and a project owned
// by someone else, foreign ownership must not be distinguishable.
var ErrProjectNotFound = errors.New("project not found")
