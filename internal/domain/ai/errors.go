package ai

import "errors"

// ErrNoProvider indicates no configured backend supports the requested capability.
var ErrNoProvider = errors.New("no ai provider available for capability")
