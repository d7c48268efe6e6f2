package handlers

import (
	"net/http"
	"strconv"

	"github.com/storefrontlabs/storefront-api/internal/api/middleware"
	"github.com/storefrontlabs/storefront-api/internal/errors"
	"github.com/storefrontlabs/storefront-api/internal/models"
	"github.com/storefrontlabs/storefront-api/internal/utils/response"
)

// requireClaims pulls the authenticated user from the request context,
// writing the 401 itself when the middleware did not run.
func requireClaims(w http.ResponseWriter, r *http.Request) (*models.Claims, bool) {

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		middleware.LoggerFromContext(r.Context()).Warn("Unauthorized access attempt")
		response.Error(w, errors.UnauthorizedError("Authentication required"))

		return nil, false
	}

	return claims, true
}

// pageParams reads paging query parameters already clamped, so the
// response envelope reports the same page and size the data was read
// with.
func pageParams(r *http.Request) (int, int) {

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	return models.NormalizePage(page, size)
}
