package product

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusArchived Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusInactive, StatusArchived:
		return true
	}
	return false
}

const (
	defaultLowStockThreshold = 5
	PlaceholderImage         = "/placeholder-image.jpg"
)

type Image struct {
	URL       string `json:"url"`
	Alt       string `json:"alt,omitempty"`
	IsPrimary bool   `json:"isPrimary"`
}

// Images is stored as a JSONB column.
type Images []Image

func (im Images) Value() (driver.Value, error) {
	if im == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(im)
}

func (im *Images) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*im = nil
		return nil
	case []byte:
		return json.Unmarshal(v, im)
	case string:
		return json.Unmarshal([]byte(v), im)
	default:
		return errors.New("product: unsupported images column type")
	}
}

type Inventory struct {
	TrackQuantity     bool `json:"trackQuantity"`
	Quantity          int  `json:"quantity"`
	LowStockThreshold int  `json:"lowStockThreshold"`
	AllowBackorder    bool `json:"allowBackorder"`
}

type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type Product struct {
	ID               uuid.UUID
	Name             string
	Description      string
	ShortDescription string
	Price            decimal.Decimal
	ComparePrice     *decimal.Decimal
	CostPrice        *decimal.Decimal
	SKU              *string
	CategoryID       uuid.UUID
	Images           Images
	Inventory        Inventory
	Status           Status
	Featured         bool
	Tags             []string
	Rating           Rating
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (p *Product) IsActive() bool {
	return p.Status == StatusActive
}

// IsInStock is true for untracked products regardless of quantity.
func (p *Product) IsInStock() bool {
	if !p.Inventory.TrackQuantity {
		return true
	}
	return p.Inventory.Quantity > 0 || p.Inventory.AllowBackorder
}

func (p *Product) IsLowStock() bool {
	return p.Inventory.TrackQuantity && p.Inventory.Quantity <= p.Inventory.LowStockThreshold
}

// Available reports whether qty units can be sold right now.
func (p *Product) Available(qty int) bool {
	return !p.Inventory.TrackQuantity || p.Inventory.Quantity >= qty
}

// DiscountPercentage is the rounded saving against the compare-at price.
func (p *Product) DiscountPercentage() int {
	if p.ComparePrice == nil || !p.ComparePrice.GreaterThan(p.Price) {
		return 0
	}
	saving := p.ComparePrice.Sub(p.Price).Div(*p.ComparePrice).Mul(decimal.NewFromInt(100))
	return int(saving.Round(0).IntPart())
}

// PrimaryImage returns the primary image URL, the first image when none is
// flagged, or an empty string.
func (p *Product) PrimaryImage() string {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

type SortOption string

const (
	SortNewest    SortOption = "newest"
	SortPriceLow  SortOption = "price-low"
	SortPriceHigh SortOption = "price-high"
	SortName      SortOption = "name"
	SortRating    SortOption = "rating"
)

func (s SortOption) orderBy() string {
	switch s {
	case SortPriceLow:
		return "p.price ASC, p.created_at DESC"
	case SortPriceHigh:
		return "p.price DESC, p.created_at DESC"
	case SortName:
		return "p.name ASC"
	case SortRating:
		return "p.rating_average DESC, p.rating_count DESC"
	default:
		return "p.created_at DESC"
	}
}

type ListFilter struct {
	CategoryIDs []uuid.UUID
	Featured    *bool
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	Search      string
	Tags        []string
	ActiveOnly  bool
	Sort        SortOption
	Limit       int
	Offset      int
}

// ListParams is the caller facing form of a product listing request.
type ListParams struct {
	CategoryID *uuid.UUID
	Featured   *bool
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Search     string
	Tags       []string
	Sort       SortOption
	Page       int
	Limit      int
}

type Review struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	UserID    uuid.UUID `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title,omitempty"`
	Comment   string    `json:"comment,omitempty"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateInput struct {
	Name              string           `json:"name"`
	Description       string           `json:"description"`
	ShortDescription  string           `json:"shortDescription"`
	Price             decimal.Decimal  `json:"price"`
	ComparePrice      *decimal.Decimal `json:"comparePrice"`
	CostPrice         *decimal.Decimal `json:"costPrice"`
	SKU               *string          `json:"sku"`
	CategoryID        string           `json:"category"`
	Images            []Image          `json:"images"`
	TrackQuantity     *bool            `json:"trackQuantity"`
	Quantity          int              `json:"quantity"`
	LowStockThreshold *int             `json:"lowStockThreshold"`
	AllowBackorder    bool             `json:"allowBackorder"`
	Status            Status           `json:"status"`
	Featured          bool             `json:"featured"`
	Tags              []string         `json:"tags"`
}

type UpdateInput struct {
	Name              *string          `json:"name"`
	Description       *string          `json:"description"`
	ShortDescription  *string          `json:"shortDescription"`
	Price             *decimal.Decimal `json:"price"`
	ComparePrice      *decimal.Decimal `json:"comparePrice"`
	CostPrice         *decimal.Decimal `json:"costPrice"`
	SKU               *string          `json:"sku"`
	CategoryID        *string          `json:"category"`
	Images            []Image          `json:"images"`
	TrackQuantity     *bool            `json:"trackQuantity"`
	Quantity          *int             `json:"quantity"`
	LowStockThreshold *int             `json:"lowStockThreshold"`
	AllowBackorder    *bool            `json:"allowBackorder"`
	Status            *Status          `json:"status"`
	Featured          *bool            `json:"featured"`
	Tags              []string         `json:"tags"`
}

type ReviewInput struct {
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}
