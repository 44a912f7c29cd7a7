package storage

import "errors"

// ErrNotFound indicates the requested key does not exist.
var ErrNotFound = errors.New("not found")

// ErrUnknownBucket is returned for a bucket the store was not opened with.
var ErrUnknownBucket = errors.New("unknown bucket")
