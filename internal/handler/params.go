package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/EgonMoreau/VivesBike/internal/domain"
)

// pathParam binds the chi URL parameter name into dest using OpenAPI
// "simple" style, the style all path parameters in openapi.yaml declare.
func pathParam(r *http.Request, name string, dest any) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
	if err != nil {
		return fmt.Errorf("%w: invalid %s: %v", domain.ErrValidation, name, err)
	}
	return nil
}

func bikeIDParam(r *http.Request) (int64, error) {
	var id int64
	if err := pathParam(r, "bikeId", &id); err != nil {
		return 0, err
	}
	return id, nil
}

func rideIDParam(r *http.Request) (int64, error) {
	var id int64
	if err := pathParam(r, "rideId", &id); err != nil {
		return 0, err
	}
	return id, nil
}

func memberIDParam(r *http.Request) (string, error) {
	var id string
	if err := pathParam(r, "memberId", &id); err != nil {
		return "", err
	}
	return id, nil
}

// paginationParams reads the optional ?page= and ?limit= query parameters
// (defaults: page=1, limit=20, max=100).
func paginationParams(r *http.Request) (domain.PaginationParams, error) {
	var page, limit *int
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "page", q, &page); err != nil {
		return domain.PaginationParams{}, fmt.Errorf("%w: invalid page: %v", domain.ErrValidation, err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &limit); err != nil {
		return domain.PaginationParams{}, fmt.Errorf("%w: invalid limit: %v", domain.ErrValidation, err)
	}
	return domain.NewPaginationParams(page, limit), nil
}

// Pagination describes the page returned by a list endpoint.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// Page is the envelope of every paginated list response.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// newPage cuts the window selected by p out of the full, ordered list.
func newPage[T any](all []T, p domain.PaginationParams) Page[T] {
	return Page[T]{
		Data:       domain.Window(all, p),
		Pagination: Pagination{Page: p.Page, Limit: p.Limit, Total: len(all)},
	}
}
