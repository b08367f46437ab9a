package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stagepass/stagepass-backend/api/responses"
	catalogsvc "github.com/stagepass/stagepass-backend/internal/catalog"
	"github.com/stagepass/stagepass-backend/pkg/enums"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
	"github.com/stagepass/stagepass-backend/pkg/logger"
)

// ArtistCatalog lists an artist's catalog through whichever provider backs
// their storefront.
func ArtistCatalog(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		artistID, err := pathUUID(chi.URLParam(r, "artistId"), "artist id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productFilters, err := parseListFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		// Public route: only published inventory is listed, whatever
		// status the caller asks for.
		published := enums.ProductStatusPublished
		filters := catalogsvc.ListFilters{
			Status:   &published,
			Category: productFilters.Category,
			Search:   productFilters.Search,
			Page:     productFilters.Page,
		}

		items, err := svc.List(r.Context(), artistID, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}

// ProductCheckoutLink resolves where the buyer should be sent to pay for a
// product, native or external.
func ProductCheckoutLink(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := pathUUID(chi.URLParam(r, "productId"), "product id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		link, err := svc.CheckoutLink(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, link)
	}
}
