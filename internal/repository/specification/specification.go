package specification

import "gorm.io/gorm"

// Specification narrows a document chunk query. Specifications compose in the order given.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}
