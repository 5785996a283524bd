package transport

import (
	"net/http"
	"strconv"
	"strings"

	"webstore-be/internal/apperror"
	"webstore-be/internal/product"
	"webstore-be/internal/utils"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type productListResponse struct {
	Products   []*product.ProductResponse `json:"products"`
	Pagination Pagination                 `json:"pagination"`
}

type inventoryInput struct {
	Delta int `json:"delta"`
}

// pathID parses the {id} route variable. A malformed id can never match a
// record, so it is reported as notFound.
func pathID(r *http.Request, notFound error) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}

func productData(p *product.Product, admin bool) map[string]interface{} {
	return map[string]interface{}{"product": product.ToResponse(p, admin)}
}

func parseProductParams(q map[string][]string) (product.ListParams, utils.Page, error) {
	get := func(k string) string {
		if vs := q[k]; len(vs) > 0 {
			return strings.TrimSpace(vs[0])
		}
		return ""
	}

	page := utils.ParsePage(get("page"), get("limit"), product.DefaultListLimit)
	params := product.ListParams{
		Search: get("search"),
		Sort:   product.SortOption(get("sort")),
		Page:   page.Page,
		Limit:  page.Limit,
	}
	v := &apperror.ValidationError{}

	if raw := get("category"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			v.Add("category", "Invalid category id")
		} else {
			params.CategoryID = &id
		}
	}
	if raw := get("featured"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			v.Add("featured", "featured must be true or false")
		} else {
			params.Featured = &b
		}
	}
	if raw := get("minPrice"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			v.Add("minPrice", "Invalid price")
		} else {
			params.MinPrice = &d
		}
	}
	if raw := get("maxPrice"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			v.Add("maxPrice", "Invalid price")
		} else {
			params.MaxPrice = &d
		}
	}
	if raw := get("tags"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				params.Tags = append(params.Tags, t)
			}
		}
	}
	return params, page, v.OrNil()
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	params, page, err := parseProductParams(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	products, total, err := h.products.ListProducts(r.Context(), params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", productListResponse{
		Products:   product.ToResponses(products, isAdmin(r)),
		Pagination: newPagination(page, total),
	})
}

func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	products, err := h.products.SearchProducts(r.Context(), q.Get("q"), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", map[string]interface{}{
		"products": product.ToResponses(products, isAdmin(r)),
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, product.ErrProductNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	p, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", productData(p, isAdmin(r)))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in product.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	p, err := h.products.CreateProduct(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Product created successfully", productData(p, true))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, product.ErrProductNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in product.UpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	p, err := h.products.UpdateProduct(r.Context(), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Product updated successfully", productData(p, true))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, product.ErrProductNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.products.DeleteProduct(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Product deleted successfully")
}

func (h *Handler) adjustInventory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, product.ErrProductNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in inventoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	if in.Delta == 0 {
		h.writeError(w, r, apperror.NewValidation("delta", "delta must not be zero"))
		return
	}

	p, err := h.products.AdjustInventory(r.Context(), id, in.Delta)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Inventory updated successfully", productData(p, true))
}

func (h *Handler) addReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, product.ErrProductNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in product.ReviewInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	rating, err := h.products.AddReview(r.Context(), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Review added successfully", map[string]interface{}{"ratings": rating})
}

func (h *Handler) listReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, product.ErrProductNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	reviews, err := h.products.ListReviews(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if reviews == nil {
		reviews = []*product.Review{}
	}
	writeData(w, http.StatusOK, "", map[string]interface{}{"reviews": reviews})
}
