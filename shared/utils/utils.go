package utils

import (
	"strconv"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NewID returns a random UUID string for transactions, cases and events.
func NewID() string {
	return uuid.NewString()
}

var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("fraud-detection/events"))

// DerivedID returns a name-based UUID for kind and key. Republishing the same
// fact yields the same id, so downstream processed markers recognise it.
func DerivedID(kind, key string) string {
	return uuid.NewSHA1(eventNamespace, []byte(kind+"/"+key)).String()
}

// ParsePage reads zero-based page and size query values, falling back to
// page 0 and DefaultPageSize. size is capped at MaxPageSize.
func ParsePage(pageStr, sizeStr string) (page, size int) {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 0 {
		page = 0
	}
	size, err = strconv.Atoi(sizeStr)
	if err != nil || size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

func TotalPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
