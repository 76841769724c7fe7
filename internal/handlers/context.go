package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/unithreads/backend/internal/domain"
	"github.com/unithreads/backend/internal/models"
	"github.com/unithreads/backend/internal/repositories"
)

// getUserIDFromContext returns the acting user's internal ID from the JWT
// claims set by the auth middleware, or 0 when unauthenticated.
func getUserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return 0
	}
	return claims.UserID
}

// getActor resolves the acting user's record. Every mutation that needs an
// actor goes through here: no session or no matching record is a 401.
func getActor(c echo.Context, userRepo repositories.UserRepository) (*models.User, error) {
	id := getUserIDFromContext(c)
	if id == 0 {
		return nil, domainHTTPError(domain.ErrAuthenticationRequired, "User not authenticated")
	}
	user, err := userRepo.GetUserByID(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domainHTTPError(domain.ErrAuthenticationRequired, "User not authenticated")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return user, nil
}

// domainHTTPError maps a domain error to the corresponding HTTP error.
func domainHTTPError(err error, message string) *echo.HTTPError {
	if message == "" {
		message = err.Error()
	}
	return echo.NewHTTPError(domain.HTTPStatus(err), message)
}

// parsePagination reads page/limit query params, clamping limit to 1..50.
func parsePagination(c echo.Context) (page, limit int) {
	page = atoiDefault(c.QueryParam("page"), 1)
	limit = atoiDefault(c.QueryParam("limit"), 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}
	return page, limit
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// paginationMeta is the envelope metadata for paginated listings.
func paginationMeta(page, limit, totalItems int) echo.Map {
	totalPages := (totalItems + limit - 1) / limit
	return echo.Map{
		"currentPage":     page,
		"totalPages":      totalPages,
		"totalItems":      totalItems,
		"itemsPerPage":    limit,
		"hasNextPage":     page < totalPages,
		"hasPreviousPage": page > 1,
	}
}
