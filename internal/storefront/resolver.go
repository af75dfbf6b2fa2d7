package storefront

import (
	"fmt"

	"github.com/rflorenc/storefront-ica-generator/internal/models"
)

// Resolve returns the first resource, in listing order, matched by query.
func Resolve(resources []models.Resource, query models.ResourceQuery) (models.Resource, error) {
	for _, r := range resources {
		if query.Match(r) {
			return r, nil
		}
	}
	return models.Resource{}, fmt.Errorf("%w (%s)", ErrResourceNotFound, query)
}
