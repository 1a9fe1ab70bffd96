package travelrepo

import "errors"

var (
	ErrAlreadyExists = errors.New("travel record already exists")
)
