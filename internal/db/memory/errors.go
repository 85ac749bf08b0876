package memory

import "errors"

var errUnexpectedType = errors.New("memory: unexpected value type")
