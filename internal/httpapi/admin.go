package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/alexanderramin/expeditions/internal/contract"
	"github.com/alexanderramin/expeditions/internal/domain"
	"github.com/alexanderramin/expeditions/internal/external"
	"github.com/alexanderramin/expeditions/internal/service"
)

const defaultRetryLimit = 100

type rosterBody struct {
	ProfileID string `json:"profileId"`
	Role      string `json:"role"`
}

type uploadResponse struct {
	URL string `json:"url"`
}

func registerRosterAPI(g *echo.Group, svc service.RosterService) {
	g.GET("/classrooms/:classroomId/roster", func(ctx echo.Context) error {
		members, err := svc.List(ctx.Request().Context(), ctx.Param("classroomId"))
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, contract.NewRosterMemberViews(members))
	})
	g.PUT("/classrooms/:classroomId/roster", func(ctx echo.Context) error {
		data := new(rosterBody)
		if err := ctx.Bind(data); err != nil {
			return err
		}
		if err := svc.Add(ctx.Request().Context(), ctx.Param("classroomId"), data.ProfileID, data.Role); err != nil {
			return err
		}
		return ctx.NoContent(http.StatusNoContent)
	})
}

func registerRewardAPI(g *echo.Group, svc service.RewardService) {
	g.GET("/rewards", func(ctx echo.Context) error {
		grants, err := svc.ListGrants(ctx.Request().Context(), studentParam(ctx))
		if err != nil {
			return err
		}
		if grants == nil {
			grants = []contract.RewardView{}
		}
		return ctx.JSON(http.StatusOK, grants)
	})
	g.POST("/rewards/retry", func(ctx echo.Context) error {
		limit := defaultRetryLimit
		if raw := ctx.QueryParam("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				return domain.NewValidationError(domain.FieldError{Field: "limit", Error: "limit must be a positive integer"})
			}
			limit = n
		}
		report, err := svc.RetryPending(ctx.Request().Context(), limit)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, report)
	})
}

// registerUploadAPI stores a multipart "file" field and returns the URL to
// reference in a submission.
func registerUploadAPI(g *echo.Group, storage *external.LocalStorage) {
	g.POST("/uploads", func(ctx echo.Context) error {
		if storage == nil || storage.Dir() == "" {
			return errNoStorage
		}
		fh, err := ctx.FormFile("file")
		if err != nil {
			return domain.NewValidationError(domain.FieldError{Field: "file", Error: "file is required"})
		}
		src, err := fh.Open()
		if err != nil {
			return err
		}
		defer src.Close()

		url, err := storage.Upload(ctx.Request().Context(), fh.Filename, src)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusCreated, uploadResponse{URL: url})
	})
}
