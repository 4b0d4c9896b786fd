package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid executor context")

	// Checker errors
	ErrInvalidUsername = errors.New("username has invalid format")
	ErrBulkEmpty       = errors.New("bulk list contains no usernames")
	ErrBulkTooLarge    = errors.New("bulk list exceeds the allowed size")
	ErrProbeFailed     = errors.New("availability probe gave no verdict")
	ErrUpstream        = errors.New("tiktok returned a server error")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrBulkActive      = errors.New("a bulk check is already running for this user")
)
