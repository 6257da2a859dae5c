// Package auth проверяет учётные данные (bearer JWT) и роли пользователя перед мутацией.
package auth

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrExpired — частный случай ErrUnauthenticated.
	ErrExpired   = fmt.Errorf("%w: token expired", ErrUnauthenticated)
	ErrForbidden = errors.New("insufficient role")
)
