package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogIsWellFormed(t *testing.T) {
	seen := make(map[string]bool)
	for _, p := range Products() {
		assert.NotEmpty(t, p.ID)
		assert.NotEmpty(t, p.Name, p.ID)
		assert.NotEmpty(t, p.Subwarehouse, p.ID)
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
	}
}

func TestProductsReturnsCopy(t *testing.T) {
	a := Products()
	a[0].Name = "cambiado"
	assert.NotEqual(t, "cambiado", Products()[0].Name)
}
