package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alexanderramin/expeditions/internal/contract"
	"github.com/alexanderramin/expeditions/internal/service"
)

type progressionApi struct {
	service service.ProgressionService
}

type submitBody struct {
	Files   []string `json:"files"`
	Comment string   `json:"comment"`
}

type decisionBody struct {
	StudentProfileID string `json:"studentProfileId"`
	Passed           *bool  `json:"passed"`
}

func registerProgressionAPI(g *echo.Group, svc service.ProgressionService) {
	api := progressionApi{service: svc}

	g.GET("/expeditions/:id/state", api.stateRetrieve)
	g.GET("/expeditions/:id/reviews", api.reviewQuery)

	pg := g.Group("/pins/:id")
	pg.POST("/attempt", api.pinAttempt)
	pg.POST("/submissions", api.submissionCreate)
	pg.GET("/submissions", api.submissionQuery)
	pg.POST("/decision", api.decisionCreate)
}

// studentParam is the ?student= query, defaulting to the caller.
func studentParam(ctx echo.Context) string {
	if s := ctx.QueryParam("student"); s != "" {
		return s
	}
	return contextProfile(ctx)
}

func (api *progressionApi) stateRetrieve(ctx echo.Context) error {
	state, err := api.service.GetExpeditionState(ctx.Request().Context(), contextProfile(ctx), ctx.Param("id"), studentParam(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, state)
}

func (api *progressionApi) reviewQuery(ctx echo.Context) error {
	reviews, err := api.service.ListPendingReviews(ctx.Request().Context(), contextProfile(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	if reviews == nil {
		reviews = []contract.PendingReview{}
	}
	return ctx.JSON(http.StatusOK, reviews)
}

func (api *progressionApi) pinAttempt(ctx echo.Context) error {
	res, err := api.service.AttemptPin(ctx.Request().Context(), contract.AttemptRequest{
		StudentProfileID: contextProfile(ctx),
		PinID:            ctx.Param("id"),
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *progressionApi) submissionCreate(ctx echo.Context) error {
	data := new(submitBody)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	res, err := api.service.Submit(ctx.Request().Context(), contract.SubmitRequest{
		StudentProfileID: contextProfile(ctx),
		PinID:            ctx.Param("id"),
		Files:            data.Files,
		Comment:          data.Comment,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *progressionApi) submissionQuery(ctx echo.Context) error {
	subs, err := api.service.ListSubmissions(ctx.Request().Context(), contextProfile(ctx), ctx.Param("id"), studentParam(ctx))
	if err != nil {
		return err
	}
	if subs == nil {
		subs = []contract.SubmissionView{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *progressionApi) decisionCreate(ctx echo.Context) error {
	data := new(decisionBody)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	res, err := api.service.SetTeacherDecision(ctx.Request().Context(), contract.DecisionRequest{
		TeacherProfileID: contextProfile(ctx),
		PinID:            ctx.Param("id"),
		StudentProfileID: data.StudentProfileID,
		Passed:           data.Passed,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}
