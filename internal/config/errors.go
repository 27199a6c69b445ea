package config

import "errors"

var (
	ErrMissingToken       = errors.New("GitHub token is required")
	ErrEmptyRepositoryURL = errors.New("repository url is required")
	ErrNoRepositories     = errors.New("no repositories configured")
)
