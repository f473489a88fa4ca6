package specification

import "gorm.io/gorm"

// BySource filters chunks of one document
type BySource struct {
	Source string
}

func (s BySource) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source = ?", s.Source)
}

// ContentSearch matches chunk text case-insensitively
type ContentSearch struct {
	Query string
}

func (s ContentSearch) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("content ILIKE ?", "%"+s.Query+"%")
}

// InDocumentOrder sorts chunks the way they appear in their document
type InDocumentOrder struct{}

func (s InDocumentOrder) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("source ASC").Order("page ASC").Order("chunk_index ASC")
}

// Pagination bounds a listing. A non-positive Limit leaves the query unbounded.
type Pagination struct {
	Limit  int
	Offset int
}

func (s Pagination) Apply(db *gorm.DB) *gorm.DB {
	if s.Limit > 0 {
		db = db.Limit(s.Limit)
	}
	if s.Offset > 0 {
		db = db.Offset(s.Offset)
	}
	return db
}
