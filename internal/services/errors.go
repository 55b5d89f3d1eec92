package services

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrAlreadyReviewed    = errors.New("moderation record already reviewed")
	ErrCaptchaFailed      = errors.New("captcha verification failed")
)
