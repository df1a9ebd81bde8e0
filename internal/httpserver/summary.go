package httpserver

import (
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	authmw "github.com/oreoinsight/backoffice/internal/middleware/auth"
	"github.com/oreoinsight/backoffice/internal/models"
	"github.com/oreoinsight/backoffice/internal/service"
)

type SummaryHTTP struct {
	Svc *service.SummaryService
}

type summaryRequest struct {
	Branch   string `json:"branch"`
	FromDate string `json:"fromDate"`
	ToDate   string `json:"toDate"`
	EmailTo  string `json:"emailTo"`
}

// Weekly accepts the request, stores it as PROCESSING and answers 202
// immediately. The aggregate-summarize-email pipeline runs off the
// request path.
func (h *SummaryHTTP) Weekly(c echo.Context) error {
	p := authmw.Principal(c)

	var req summaryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if _, err := mail.ParseAddress(req.EmailTo); err != nil {
		return fmt.Errorf("%w: a valid emailTo is required", service.ErrInvalidArgument)
	}

	branch := strings.TrimSpace(req.Branch)
	switch p.Role {
	case models.RoleBranch:
		if branch == "" {
			return fmt.Errorf("%w: branch is required", service.ErrInvalidArgument)
		}
		if !p.CanAccessBranch(branch) {
			return fmt.Errorf("%w: cannot request a summary for another branch", service.ErrForbidden)
		}
	}

	var from, to time.Time
	switch {
	case req.FromDate == "" && req.ToDate == "":
		// Default window is the trailing seven days ending today.
	case req.FromDate != "" && req.ToDate != "":
		var err error
		if from, err = time.Parse("2006-01-02", req.FromDate); err != nil {
			return fmt.Errorf("%w: invalid fromDate", service.ErrInvalidArgument)
		}
		if to, err = time.Parse("2006-01-02", req.ToDate); err != nil {
			return fmt.Errorf("%w: invalid toDate", service.ErrInvalidArgument)
		}
		if to.Before(from) {
			return fmt.Errorf("%w: toDate must not precede fromDate", service.ErrInvalidArgument)
		}
	default:
		return fmt.Errorf("%w: fromDate and toDate must be provided together", service.ErrInvalidArgument)
	}

	report, err := h.Svc.Dispatch(c.Request().Context(), service.SummaryRequest{
		From:    from,
		To:      to,
		Branch:  branch,
		EmailTo: req.EmailTo,
	}, p.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusAccepted, echo.Map{
		"requestId":     report.ID,
		"status":        report.Status,
		"message":       "summary generation started, the report will be emailed shortly",
		"estimatedTime": "1-2 minutes",
		"requestedAt":   report.RequestedAt,
	})
}
