package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/carline/core"
	"github.com/trezcool/carline/core/history"
	"github.com/trezcool/carline/core/metrics"
)

type (
	dailyQuery struct {
		Date string `query:"date" validate:"omitempty,datetime=2006-01-02"`
	}

	monthQuery struct {
		Month string `query:"month" validate:"omitempty,datetime=2006-01"`
	}

	topArrivalsResponse struct {
		CampusID string               `json:"campusId"`
		Month    string               `json:"month"`
		Cars     []metrics.CarArrival `json:"cars"`
	}
)

type metricsAPI struct {
	service *metrics.Service
}

// reporting is restricted to campus administrators
func registerMetricsAPI(v1 *echo.Group, jwt echo.MiddlewareFunc, svc *metrics.Service) {
	api := metricsAPI{service: svc}

	g := v1.Group("/campuses/:campus/metrics", jwt, roleMiddleware(adminRoles...))
	g.GET("/daily", api.daily)
	g.GET("/top-arrivals", api.topArrivals)
}

// parseIn parses value in the reference timezone, defaulting to now.
func (api metricsAPI) parseIn(layout, value string) time.Time {
	if value == "" {
		return core.NowFunc().In(api.service.Location())
	}
	t, _ := time.ParseInLocation(layout, value, api.service.Location()) // validated
	return t
}

func (api metricsAPI) daily(ctx echo.Context) error {
	var q dailyQuery
	if err := ctx.Bind(&q); err != nil {
		return err
	}
	if err := core.Validate.Struct(q); err != nil {
		return err
	}
	snap, err := api.service.Day(ctx.Request().Context(), ctx.Param("campus"), api.parseIn(history.DateLayout, q.Date))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, snap)
}

func (api metricsAPI) topArrivals(ctx echo.Context) error {
	var q monthQuery
	if err := ctx.Bind(&q); err != nil {
		return err
	}
	if err := core.Validate.Struct(q); err != nil {
		return err
	}
	month := api.parseIn(history.MonthLayout, q.Month)
	cars, err := api.service.TopArrivals(ctx.Request().Context(), ctx.Param("campus"), month)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, topArrivalsResponse{
		CampusID: ctx.Param("campus"),
		Month:    month.Format(history.MonthLayout),
		Cars:     cars,
	})
}
