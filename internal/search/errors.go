package search

import "github.com/rotisserie/eris"

// ErrInvalidInput marks a malformed search request. It is raised before any
// provider call; match with errors.Is.
var ErrInvalidInput = eris.New("search: invalid input")
