package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasapp/darasa/core/attendance"
)

type attendanceApi struct {
	svc attendance.Service
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc attendance.Service) {
	api := attendanceApi{svc: svc}

	ag := g.Group("/attendance", jwt)

	// marking and reporting are for staff
	ag.POST("", api.record, teacherMiddleware())
	ag.GET("", api.query, teacherMiddleware())
	ag.GET("/summary", api.summarize, teacherMiddleware())
	ag.DELETE("", api.destroyMultiple, adminMiddleware())

	// students can see their own aggregate
	ag.GET("/me", api.mySummary)
}

// Handlers

func (api *attendanceApi) record(ctx echo.Context) error {
	var data attendance.NewRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecord")
	}
	if err := data.Validate(ctx.Request().Context()); err != nil {
		return err
	}

	rec, err := api.svc.Record(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording attendance")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	filter := new(attendance.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []attendance.Record{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	recs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *attendanceApi) summarize(ctx echo.Context) error {
	filter := new(attendance.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []attendance.Summary{})
	}
	filter.Clean()

	summaries, err := api.svc.Summarize(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "summarizing attendance")
	}
	return ctx.JSON(http.StatusOK, summaries)
}

// mySummary reports the caller's own attendance percentage.
func (api *attendanceApi) mySummary(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := new(attendance.QueryFilter)
	if err := ctx.Bind(filter); err == nil {
		filter.Clean()
	}
	filter.StudentID = claims.Subject

	summaries, err := api.svc.Summarize(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "summarizing attendance")
	}
	if len(summaries) == 0 {
		return ctx.JSON(http.StatusOK, attendance.Summary{StudentID: claims.Subject})
	}
	return ctx.JSON(http.StatusOK, summaries[0])
}

func (api *attendanceApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting attendance records")
	}
	return ctx.NoContent(http.StatusNoContent)
}
