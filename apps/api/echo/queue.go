package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/carline/core"
	"github.com/trezcool/carline/core/queue"
)

type (
	addCarRequest struct {
		CarNumber int        `json:"carNumber"`
		Lane      queue.Lane `json:"lane"`
	}

	moveCarRequest struct {
		Lane queue.Lane `json:"lane"`
	}

	activityQuery struct {
		Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
	}

	clearResponse struct {
		Cleared int `json:"clearedCount"`
	}
)

type queueAPI struct {
	service *queue.Service
}

func registerQueueAPI(v1 *echo.Group, readJWT, writeJWT echo.MiddlewareFunc, svc *queue.Service) {
	api := queueAPI{service: svc}

	campuses := v1.Group("/campuses/:campus/queue")
	campuses.GET("", api.current, readJWT)
	campuses.GET("/metrics", api.metrics, readJWT)
	campuses.GET("/activity", api.activity, readJWT)
	campuses.POST("", api.add, writeJWT)
	campuses.DELETE("", api.clear, writeJWT)

	entries := v1.Group("/queue/:id", writeJWT)
	entries.DELETE("", api.remove)
	entries.POST("/move", api.move)

	v1.GET("/cars/:carNumber", api.check, readJWT)
}

func (api queueAPI) add(ctx echo.Context) error {
	var req addCarRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	entry, err := api.service.AddCar(ctx.Request().Context(), getContextPrincipal(ctx), queue.NewCar{
		CarNumber: req.CarNumber,
		Campus:    ctx.Param("campus"),
		Lane:      req.Lane,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, entry)
}

func (api queueAPI) remove(ctx echo.Context) error {
	removal, err := api.service.RemoveCar(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, removal)
}

func (api queueAPI) move(ctx echo.Context) error {
	var req moveCarRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	entry, err := api.service.MoveCar(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"), req.Lane)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api queueAPI) clear(ctx echo.Context) error {
	n, err := api.service.ClearAllCars(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("campus"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, clearResponse{Cleared: n})
}

func (api queueAPI) check(ctx echo.Context) error {
	carNumber, err := strconv.Atoi(ctx.Param("carNumber"))
	if err != nil {
		return core.NewValidationError(queue.ErrInvalidCarNumber,
			core.FieldError{Field: "carNumber", Error: queue.ErrInvalidCarNumber.Error()})
	}
	status, err := api.service.CheckCarInQueue(ctx.Request().Context(), getContextPrincipal(ctx), carNumber, ctx.QueryParam("campus"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, status)
}

func (api queueAPI) current(ctx echo.Context) error {
	cq, err := api.service.GetCurrentQueue(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("campus"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cq)
}

func (api queueAPI) metrics(ctx echo.Context) error {
	qm, err := api.service.GetQueueMetrics(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("campus"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, qm)
}

func (api queueAPI) activity(ctx echo.Context) error {
	var q activityQuery
	if err := ctx.Bind(&q); err != nil {
		return err
	}
	if err := core.Validate.Struct(q); err != nil {
		return err
	}
	ra, err := api.service.GetRecentActivity(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("campus"), q.Limit)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ra)
}
