package user

import "errors"

var (
	ErrInvalidToken          = errors.New("invalid or expired token")
	ErrManagerAccessRequired = errors.New("manager access required")
	ErrEmployeeIDRequired    = errors.New("token carries no employee id")
)
