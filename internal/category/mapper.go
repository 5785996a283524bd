package category

import "time"

type CategoryResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Description  string `json:"description,omitempty"`
	Parent       *Ref   `json:"parent"`
	Image        *Image `json:"image,omitempty"`
	Icon         string `json:"icon,omitempty"`
	SEO          *SEO   `json:"seo,omitempty"`
	IsActive     bool   `json:"isActive"`
	SortOrder    int    `json:"sortOrder"`
	ProductCount int    `json:"productCount"`
	Children     []*Ref `json:"children,omitempty"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

type TreeResponse struct {
	*CategoryResponse
	Children []*TreeResponse `json:"children"`
}

func ToResponse(c *Category) *CategoryResponse {
	resp := &CategoryResponse{
		ID:           c.ID.String(),
		Name:         c.Name,
		Slug:         c.Slug,
		Description:  c.Description,
		Parent:       c.Parent,
		Icon:         c.Icon,
		IsActive:     c.IsActive,
		SortOrder:    c.SortOrder,
		ProductCount: c.ProductCount,
		CreatedAt:    c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    c.UpdatedAt.Format(time.RFC3339),
	}
	if c.Parent == nil && c.ParentID != nil {
		resp.Parent = &Ref{ID: *c.ParentID}
	}
	if c.Image.URL != "" {
		img := c.Image
		resp.Image = &img
	}
	if c.SEO.MetaTitle != "" || c.SEO.MetaDescription != "" || len(c.SEO.Keywords) > 0 {
		seo := c.SEO
		resp.SEO = &seo
	}
	return resp
}

func ToResponses(list []*Category) []*CategoryResponse {
	out := make([]*CategoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, ToResponse(c))
	}
	return out
}

func ToDetailResponse(d *Detail) *CategoryResponse {
	resp := ToResponse(d.Category)
	resp.Children = d.Children
	if resp.Children == nil {
		resp.Children = []*Ref{}
	}
	return resp
}

func ToTreeResponse(nodes []*Node) []*TreeResponse {
	out := make([]*TreeResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &TreeResponse{
			CategoryResponse: ToResponse(n.Category),
			Children:         ToTreeResponse(n.Children),
		})
	}
	return out
}
