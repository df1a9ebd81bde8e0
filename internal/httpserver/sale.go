package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	authmw "github.com/oreoinsight/backoffice/internal/middleware/auth"
	"github.com/oreoinsight/backoffice/internal/models"
	"github.com/oreoinsight/backoffice/internal/service"
	"github.com/oreoinsight/backoffice/internal/util"
)

type SaleHTTP struct {
	Svc *service.SaleService
}

type saleRequest struct {
	SKU    string    `json:"sku"`
	Units  int       `json:"units"`
	Price  float64   `json:"price"`
	Branch string    `json:"branch"`
	SoldAt time.Time `json:"soldAt"`
}

func (r *saleRequest) validate() error {
	switch {
	case strings.TrimSpace(r.SKU) == "":
		return fmt.Errorf("%w: sku is required", service.ErrInvalidArgument)
	case r.Units < 1:
		return fmt.Errorf("%w: units must be greater than 0", service.ErrInvalidArgument)
	case r.Price <= 0:
		return fmt.Errorf("%w: price must be greater than 0", service.ErrInvalidArgument)
	case strings.TrimSpace(r.Branch) == "":
		return fmt.Errorf("%w: branch is required", service.ErrInvalidArgument)
	case r.SoldAt.IsZero():
		return fmt.Errorf("%w: soldAt is required", service.ErrInvalidArgument)
	}
	return nil
}

func (h *SaleHTTP) Create(c echo.Context) error {
	p := authmw.Principal(c)

	var req saleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.validate(); err != nil {
		return err
	}
	if p.Role == models.RoleBranch && !p.CanAccessBranch(req.Branch) {
		return fmt.Errorf("%w: cannot create sales for another branch", service.ErrForbidden)
	}

	sale := &models.Sale{
		SKU:       req.SKU,
		Units:     req.Units,
		Price:     req.Price,
		Branch:    req.Branch,
		SoldAt:    req.SoldAt,
		CreatedBy: p.ID,
	}
	if err := h.Svc.Create(c.Request().Context(), sale); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sale)
}

func (h *SaleHTTP) List(c echo.Context) error {
	p := authmw.Principal(c)

	branch := c.QueryParam("branch")
	if p.Role == models.RoleBranch {
		// BRANCH callers only ever see their own branch.
		branch = p.Branch
	}

	var start, end time.Time
	fromStr, toStr := c.QueryParam("from"), c.QueryParam("to")
	if fromStr != "" && toStr != "" {
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return fmt.Errorf("%w: invalid from date", service.ErrInvalidArgument)
		}
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return fmt.Errorf("%w: invalid to date", service.ErrInvalidArgument)
		}
		start = from
		end = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	offset, limit := util.Calculate(page, size)

	sales, total, err := h.Svc.Find(c.Request().Context(), start, end, branch, offset, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": sales,
		"total": total,
		"page":  offset/limit + 1,
		"size":  limit,
	})
}

func (h *SaleHTTP) Get(c echo.Context) error {
	p := authmw.Principal(c)

	sale, err := h.Svc.ByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if !p.CanAccessBranch(sale.Branch) {
		return fmt.Errorf("%w: cannot access this sale", service.ErrForbidden)
	}
	return c.JSON(http.StatusOK, sale)
}

func (h *SaleHTTP) Update(c echo.Context) error {
	p := authmw.Principal(c)

	var req saleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	existing, err := h.Svc.ByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if !p.CanAccessBranch(existing.Branch) || !p.CanAccessBranch(req.Branch) {
		return fmt.Errorf("%w: cannot update this sale", service.ErrForbidden)
	}

	updated, err := h.Svc.Update(c.Request().Context(), existing, models.Sale{
		SKU:    req.SKU,
		Units:  req.Units,
		Price:  req.Price,
		Branch: req.Branch,
		SoldAt: req.SoldAt,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete is CENTRAL-only; the route carries the RequireCentral guard.
func (h *SaleHTTP) Delete(c echo.Context) error {
	if err := h.Svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *SaleHTTP) Search(c echo.Context) error {
	p := authmw.Principal(c)

	query := c.QueryParam("q")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: q is required", service.ErrInvalidArgument)
	}

	branch := c.QueryParam("branch")
	if p.Role == models.RoleBranch {
		branch = p.Branch
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	offset, limit := util.Calculate(page, size)

	total, sales, err := h.Svc.Search(c.Request().Context(), query, branch, offset, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": sales,
		"total": total,
	})
}
