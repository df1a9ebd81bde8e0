package httpserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	authmw "github.com/oreoinsight/backoffice/internal/middleware/auth"
	"github.com/oreoinsight/backoffice/internal/models"
	"github.com/oreoinsight/backoffice/internal/service"
)

type ReportHTTP struct {
	Svc *service.ReportService
}

type reportRequestBody struct {
	Branch   string `json:"branch"`
	FromDate string `json:"fromDate"`
	ToDate   string `json:"toDate"`
	EmailTo  string `json:"emailTo"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

func (b *reportRequestBody) toModel() (models.ReportRequest, error) {
	var rr models.ReportRequest
	if strings.TrimSpace(b.Branch) == "" {
		return rr, fmt.Errorf("%w: branch is required", service.ErrInvalidArgument)
	}
	if strings.TrimSpace(b.EmailTo) == "" {
		return rr, fmt.Errorf("%w: emailTo is required", service.ErrInvalidArgument)
	}
	from, err := time.Parse("2006-01-02", b.FromDate)
	if err != nil {
		return rr, fmt.Errorf("%w: invalid fromDate", service.ErrInvalidArgument)
	}
	to, err := time.Parse("2006-01-02", b.ToDate)
	if err != nil {
		return rr, fmt.Errorf("%w: invalid toDate", service.ErrInvalidArgument)
	}
	rr = models.ReportRequest{
		Branch:   b.Branch,
		FromDate: from,
		ToDate:   to,
		EmailTo:  b.EmailTo,
		Message:  b.Message,
	}
	if b.Status != "" {
		rr.Status = models.ReportStatus(b.Status)
	}
	return rr, nil
}

func (h *ReportHTTP) Create(c echo.Context) error {
	p := authmw.Principal(c)

	var body reportRequestBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	rr, err := body.toModel()
	if err != nil {
		return err
	}
	if p.Role == models.RoleBranch && !p.CanAccessBranch(rr.Branch) {
		return fmt.Errorf("%w: cannot request reports for another branch", service.ErrForbidden)
	}

	rr.RequestedAt = time.Now()
	rr.RequestedBy = p.ID
	if err := h.Svc.Create(c.Request().Context(), &rr); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rr)
}

func (h *ReportHTTP) List(c echo.Context) error {
	p := authmw.Principal(c)

	branch := ""
	if p.Role == models.RoleBranch {
		branch = p.Branch
	}
	reports, err := h.Svc.List(c.Request().Context(), branch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reports)
}

func (h *ReportHTTP) Get(c echo.Context) error {
	p := authmw.Principal(c)

	rr, err := h.Svc.ByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if !p.CanAccessBranch(rr.Branch) {
		return fmt.Errorf("%w: cannot access this report request", service.ErrForbidden)
	}
	return c.JSON(http.StatusOK, rr)
}

func (h *ReportHTTP) Update(c echo.Context) error {
	p := authmw.Principal(c)

	var body reportRequestBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	updates, err := body.toModel()
	if err != nil {
		return err
	}

	existing, err := h.Svc.ByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if !p.CanAccessBranch(existing.Branch) || !p.CanAccessBranch(updates.Branch) {
		return fmt.Errorf("%w: cannot update this report request", service.ErrForbidden)
	}

	updated, err := h.Svc.Update(c.Request().Context(), existing, updates)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete is CENTRAL-only; the route carries the RequireCentral guard.
func (h *ReportHTTP) Delete(c echo.Context) error {
	if err := h.Svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
