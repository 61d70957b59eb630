package storage

import (
	"errors"
)

var ECorrupted = errors.New("The storage medium is corrupted")
var EClosed = errors.New("Driver is closed")
