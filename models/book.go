package models

import "time"

// DefaultTotalPages is used when the catalog gives no usable page count.
const DefaultTotalPages = 300

// LibraryBook is one book on a user's shelf. ID is the catalog identifier (ISBN-like)
// and is unique within a library.
type LibraryBook struct {
	ID          string    `bson:"bookId" json:"id"`
	Title       string    `bson:"title" json:"title"`
	Author      string    `bson:"author,omitempty" json:"author,omitempty"`
	CoverURL    string    `bson:"coverUrl,omitempty" json:"coverUrl,omitempty"`
	TotalPages  int       `bson:"totalPages" json:"totalPages"`
	CurrentPage int       `bson:"currentPage" json:"currentPage"`
	Progress    int       `bson:"-" json:"progress"`
	AddedAt     time.Time `bson:"addedAt,omitempty" json:"addedAt,omitempty"`
	LastReadAt  time.Time `bson:"lastReadAt,omitempty" json:"lastReadAt,omitempty"`
}

// PageCountKind tags which form a catalog page count arrived in.
type PageCountKind int

const (
	PageCountAbsent PageCountKind = iota
	PageCountNumeric
	PageCountText
)

// PageCount is the page count field of a catalog record. Catalogs report it as a
// number, as free text ("320", "320p") or not at all.
type PageCount struct {
	Kind  PageCountKind `json:"kind"`
	Value int           `json:"value,omitempty"`
	Text  string        `json:"text,omitempty"`
}

func NumericPages(n int) PageCount { return PageCount{Kind: PageCountNumeric, Value: n} }

func TextPages(s string) PageCount { return PageCount{Kind: PageCountText, Text: s} }

// CatalogBook is a book record returned by the catalog search.
type CatalogBook struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author,omitempty"`
	Description string    `json:"description,omitempty"`
	CoverURL    string    `json:"coverUrl,omitempty"`
	PageCount   PageCount `json:"pageCount"`
}
