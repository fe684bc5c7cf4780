package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		page, size         string
		wantPage, wantSize int
	}{
		{"", "", 0, DefaultPageSize},
		{"2", "5", 2, 5},
		{"-1", "0", 0, DefaultPageSize},
		{"abc", "500", 0, MaxPageSize},
	}
	for _, tt := range tests {
		page, size := ParsePage(tt.page, tt.size)
		assert.Equal(t, tt.wantPage, page, "page %q", tt.page)
		assert.Equal(t, tt.wantSize, size, "size %q", tt.size)
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 20))
	assert.Equal(t, 1, TotalPages(20, 20))
	assert.Equal(t, 2, TotalPages(21, 20))
	assert.Equal(t, 0, TotalPages(5, 0))
}

func TestNewID(t *testing.T) {
	id := NewID()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, NewID())
}

func TestDerivedID(t *testing.T) {
	id := DerivedID("risk.scored", "txn-1")
	parsed, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version())

	assert.Equal(t, id, DerivedID("risk.scored", "txn-1"))
	assert.NotEqual(t, id, DerivedID("risk.scored", "txn-2"))
	assert.NotEqual(t, id, DerivedID("fraud.decision.made", "txn-1"))
}
