package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	authmw "github.com/oreoinsight/backoffice/internal/middleware/auth"
	loggingmw "github.com/oreoinsight/backoffice/internal/middleware/logging"
	"github.com/oreoinsight/backoffice/internal/observability"
)

// Deps bundles everything the router wires together.
type Deps struct {
	Logger  *slog.Logger
	AuthMW  *authmw.Middleware
	Metrics *observability.Metrics

	// Ready reports whether downstream dependencies answer; nil means
	// always ready.
	Ready func(c echo.Context) error

	Auth    *AuthHTTP
	Sales   *SaleHTTP
	Reports *ReportHTTP
	Summary *SummaryHTTP
}

// Register installs the middleware chain and every route on e.
func Register(e *echo.Echo, d *Deps) {
	e.HideBanner = true
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.Recover())
	e.Use(loggingmw.RequestLogger(d.Logger))
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}
	e.Use(d.AuthMW.Filter)

	e.GET("/health/live", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{
					"status": "unavailable",
				})
			}
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	e.POST("/auth/register", d.Auth.Register)
	e.POST("/auth/login", d.Auth.Login)

	api := e.Group("/api", authmw.RequireAuth)

	api.POST("/sales", d.Sales.Create)
	api.GET("/sales", d.Sales.List)
	api.GET("/sales/search", d.Sales.Search)
	api.GET("/sales/:id", d.Sales.Get)
	api.PUT("/sales/:id", d.Sales.Update)
	api.DELETE("/sales/:id", d.Sales.Delete, authmw.RequireCentral)

	api.POST("/report-requests", d.Reports.Create)
	api.GET("/report-requests", d.Reports.List)
	api.GET("/report-requests/:id", d.Reports.Get)
	api.PUT("/report-requests/:id", d.Reports.Update)
	api.DELETE("/report-requests/:id", d.Reports.Delete, authmw.RequireCentral)

	e.POST("/sales/summary/weekly", d.Summary.Weekly, authmw.RequireAuth)
}
