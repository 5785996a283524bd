package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	ShortDescription   string    `json:"shortDescription,omitempty"`
	Price              float64   `json:"price"`
	ComparePrice       *float64  `json:"comparePrice,omitempty"`
	CostPrice          *float64  `json:"costPrice,omitempty"`
	SKU                *string   `json:"sku,omitempty"`
	Category           string    `json:"category"`
	Images             []Image   `json:"images"`
	Inventory          Inventory `json:"inventory"`
	Status             Status    `json:"status"`
	Featured           bool      `json:"featured"`
	Tags               []string  `json:"tags"`
	Ratings            Rating    `json:"ratings"`
	DiscountPercentage int       `json:"discountPercentage"`
	IsInStock          bool      `json:"isInStock"`
	IsLowStock         bool      `json:"isLowStock"`
	CreatedAt          string    `json:"createdAt"`
	UpdatedAt          string    `json:"updatedAt"`
}

func decimalPtrToFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

// ToResponse maps a product for clients. Cost price is only exposed when
// includeCost is set, which the HTTP layer does for admins.
func ToResponse(p *Product, includeCost bool) *ProductResponse {
	images := []Image(p.Images)
	if images == nil {
		images = []Image{}
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	resp := &ProductResponse{
		ID:                 p.ID.String(),
		Name:               p.Name,
		Description:        p.Description,
		ShortDescription:   p.ShortDescription,
		Price:              p.Price.InexactFloat64(),
		ComparePrice:       decimalPtrToFloat(p.ComparePrice),
		SKU:                p.SKU,
		Category:           p.CategoryID.String(),
		Images:             images,
		Inventory:          p.Inventory,
		Status:             p.Status,
		Featured:           p.Featured,
		Tags:               tags,
		Ratings:            p.Rating,
		DiscountPercentage: p.DiscountPercentage(),
		IsInStock:          p.IsInStock(),
		IsLowStock:         p.IsLowStock(),
		CreatedAt:          p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          p.UpdatedAt.Format(time.RFC3339),
	}
	if includeCost {
		resp.CostPrice = decimalPtrToFloat(p.CostPrice)
	}
	return resp
}

func ToResponses(products []*Product, includeCost bool) []*ProductResponse {
	out := make([]*ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, ToResponse(p, includeCost))
	}
	return out
}
