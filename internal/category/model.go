package category

import (
	"time"

	"github.com/google/uuid"
)

type Image struct {
	URL string `json:"url,omitempty"`
	Alt string `json:"alt,omitempty"`
}

type SEO struct {
	MetaTitle       string   `json:"metaTitle,omitempty"`
	MetaDescription string   `json:"metaDescription,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
}

// Ref is the short form of a category used for parent and child links.
type Ref struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

type Category struct {
	ID           uuid.UUID
	Name         string
	Slug         string
	Description  string
	ParentID     *uuid.UUID
	Parent       *Ref
	Image        Image
	Icon         string
	SEO          SEO
	IsActive     bool
	SortOrder    int
	ProductCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (c *Category) Ref() *Ref {
	return &Ref{ID: c.ID, Name: c.Name, Slug: c.Slug}
}

type CreateInput struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	Parent      *string `json:"parent"`
	Image       Image   `json:"image"`
	Icon        string  `json:"icon"`
	SEO         SEO     `json:"seo"`
	IsActive    *bool   `json:"isActive"`
	SortOrder   int     `json:"sortOrder"`
}

// UpdateInput carries only the fields present in the request. An empty
// Parent string clears the parent.
type UpdateInput struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Parent      *string `json:"parent"`
	Image       *Image  `json:"image"`
	Icon        *string `json:"icon"`
	SEO         *SEO    `json:"seo"`
	IsActive    *bool   `json:"isActive"`
	SortOrder   *int    `json:"sortOrder"`
}
