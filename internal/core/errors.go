package core

import "errors"

var (
	// Repository errors
	ErrNotARepository    = errors.New("not a lodestar repository")
	ErrAlreadyRepository = errors.New("already a lodestar repository")
	ErrInvalidConfig     = errors.New("invalid configuration")

	// Object errors
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidObject  = errors.New("invalid object format")
	ErrInvalidHash    = errors.New("invalid hash")

	// Reference errors
	ErrRefNotFound       = errors.New("reference not found")
	ErrBranchExists      = errors.New("branch already exists")
	ErrInvalidBranchName = errors.New("invalid branch name")
	ErrRefNameTooLong    = errors.New("reference name too long")

	// Remote / negotiation errors
	ErrNoFetchRefspec = errors.New("remote has no fetch refspec")
	ErrInvalidRefspec = errors.New("invalid refspec")

	// Commit errors
	ErrNoCommits     = errors.New("no commits yet")
	ErrInvalidCommit = errors.New("invalid commit")
)
