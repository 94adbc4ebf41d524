package browse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/kiosk/internal/content"
)

func TestCategoryCache_CountAndAll(t *testing.T) {
	c := NewCategoryCache()
	require.False(t, c.Loaded())

	require.NoError(t, c.Load([]content.CategoryCount{
		{Name: "A", Count: 10},
		{Name: "B", Count: 8},
		{Name: "C", Count: 5},
	}))

	assert.True(t, c.Loaded())
	assert.Equal(t, 10, c.Count("A"))
	assert.Equal(t, 8, c.Count("B"))
	assert.Equal(t, 5, c.Count("C"))
	assert.Equal(t, 23, c.Count(content.AllCategory))
	assert.Equal(t, 0, c.Count("missing"))
}

func TestCategoryCache_WriteOnce(t *testing.T) {
	c := NewCategoryCache()
	require.NoError(t, c.Load([]content.CategoryCount{{Name: "A", Count: 3}}))

	err := c.Load([]content.CategoryCount{{Name: "A", Count: 1}, {Name: "Z", Count: 9}})
	assert.ErrorIs(t, err, ErrCacheFrozen)
	assert.Equal(t, 3, c.Count("A"))
	assert.Equal(t, 0, c.Count("Z"))
	assert.Equal(t, 3, c.Count(content.AllCategory))
}

func TestCategoryCache_MergesDuplicatesAndSkipsAll(t *testing.T) {
	c := NewCategoryCache()
	require.NoError(t, c.Load([]content.CategoryCount{
		{Name: "A", Count: 2},
		{Name: content.AllCategory, Count: 100},
		{Name: "A", Count: 3},
		{Name: "", Count: 7},
	}))

	assert.Equal(t, 5, c.Count("A"))
	assert.Equal(t, 5, c.Count(content.AllCategory))
}

func TestCategoryCache_CategoriesIsACopy(t *testing.T) {
	c := NewCategoryCache()
	require.NoError(t, c.Load([]content.CategoryCount{{Name: "B", Count: 1}, {Name: "A", Count: 2}}))

	cats := c.Categories()
	require.Equal(t, []content.CategoryCount{
		{Name: content.AllCategory, Count: 3},
		{Name: "B", Count: 1},
		{Name: "A", Count: 2},
	}, cats)

	cats[1].Count = 99
	assert.Equal(t, 1, c.Count("B"))
}

func TestCategoryCache_EmptyBeforeLoad(t *testing.T) {
	c := NewCategoryCache()
	assert.Equal(t, []content.CategoryCount{{Name: content.AllCategory, Count: 0}}, c.Categories())
}
