package controller

import (
	"github.com/Laisky/errors/v2"

	"github.com/Laisky/promptbox/internal/web/user/model"
)

const loginFailedMessage = "login failed"

// maskLoginError returns a sanitized login error for client responses.
// Unknown account and wrong password must stay byte-identical outward.
func maskLoginError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, model.ErrInvalidCredentials) {
		return errors.WithStack(model.ErrInvalidCredentials)
	}

	return errors.WithStack(errors.New(loginFailedMessage))
}
