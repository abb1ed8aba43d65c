package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/EgonMoreau/VivesBike/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestNewPaginationParams_Defaults(t *testing.T) {
	p := domain.NewPaginationParams(nil, nil)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.Limit)
	assert.Equal(t, 0, p.Offset())
}

func TestNewPaginationParams_CapsLimit(t *testing.T) {
	p := domain.NewPaginationParams(intPtr(3), intPtr(500))
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 100, p.Limit)
	assert.Equal(t, 200, p.Offset())
}

func TestWindow(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2}, domain.Window(items, domain.NewPaginationParams(intPtr(1), intPtr(2))))
	assert.Equal(t, []int{5}, domain.Window(items, domain.NewPaginationParams(intPtr(3), intPtr(2))))

	past := domain.Window(items, domain.NewPaginationParams(intPtr(4), intPtr(2)))
	assert.NotNil(t, past)
	assert.Empty(t, past)
}
