package transport

import (
	"net/http"

	"webstore-be/internal/category"
	"webstore-be/internal/product"
	"webstore-be/internal/utils"
)

func categoryData(c *category.CategoryResponse) map[string]interface{} {
	return map[string]interface{}{"category": c}
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.categories.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", map[string]interface{}{
		"categories": category.ToResponses(list),
	})
}

func (h *Handler) categoryTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.categories.Tree(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", map[string]interface{}{
		"categories": category.ToTreeResponse(tree),
	})
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, category.ErrCategoryNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	d, err := h.categories.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", categoryData(category.ToDetailResponse(d)))
}

func (h *Handler) categoryProducts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, category.ErrCategoryNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	page := utils.ParsePage(q.Get("page"), q.Get("limit"), category.DefaultProductLimit)

	res, err := h.categories.Products(r.Context(), id, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", map[string]interface{}{
		"products":   product.ToResponses(res.Products, false),
		"category":   res.Category.Ref(),
		"pagination": newPagination(res.Page, res.Total),
	})
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var in category.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	c, err := h.categories.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Category created successfully", categoryData(category.ToResponse(c)))
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, category.ErrCategoryNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in category.UpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	c, err := h.categories.Update(r.Context(), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Category updated successfully", categoryData(category.ToResponse(c)))
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, category.ErrCategoryNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.categories.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Category deleted successfully")
}
