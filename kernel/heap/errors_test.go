package heap

import "errors"

var errCorrupt = errors.New("buffer corrupted by another writer")
