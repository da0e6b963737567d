package httpapi

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alexanderramin/expeditions/internal/contract"
	"github.com/alexanderramin/expeditions/internal/domain"
	"github.com/alexanderramin/expeditions/internal/importer"
	"github.com/alexanderramin/expeditions/internal/service"
)

// maxImportBytes bounds an uploaded import document.
const maxImportBytes = 1 << 20

type expeditionApi struct {
	graph   service.GraphService
	imports service.ImportService
}

func registerExpeditionAPI(g *echo.Group, graph service.GraphService, imports service.ImportService) {
	api := expeditionApi{graph: graph, imports: imports}

	g.GET("/classrooms/:classroomId/expeditions", api.expeditionQuery)

	eg := g.Group("/expeditions")
	eg.POST("", api.expeditionCreate)
	eg.POST("/import", api.expeditionImport)
	eg.GET("/:id", api.expeditionRetrieve)
	eg.PATCH("/:id", api.expeditionUpdate)
	eg.GET("/:id/graph", api.expeditionGraph)
	eg.POST("/:id/publish", api.expeditionPublish)
	eg.POST("/:id/archive", api.expeditionArchive)
	eg.POST("/:id/pins", api.pinCreate)
	eg.POST("/:id/connections", api.connectionCreate)

	g.PUT("/pins/:id", api.pinUpdate)
	g.DELETE("/pins/:id", api.pinDestroy)
	g.PATCH("/connections/:id", api.connectionUpdate)
	g.DELETE("/connections/:id", api.connectionDestroy)
}

func (api *expeditionApi) expeditionQuery(ctx echo.Context) error {
	exps, err := api.graph.ListExpeditions(ctx.Request().Context(), contextProfile(ctx), ctx.Param("classroomId"))
	if err != nil {
		return err
	}
	views := make([]contract.ExpeditionView, 0, len(exps))
	for _, e := range exps {
		views = append(views, contract.NewExpeditionView(e))
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *expeditionApi) expeditionCreate(ctx echo.Context) error {
	data := new(contract.NewExpeditionRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	data.TeacherProfileID = contextProfile(ctx)

	exp, err := api.graph.CreateExpedition(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, contract.NewExpeditionView(exp))
}

// expeditionImport accepts a YAML or JSON import document as the raw body.
func (api *expeditionApi) expeditionImport(ctx echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxImportBytes))
	if err != nil {
		return err
	}
	schema, err := importer.Parse(body)
	if err != nil {
		return domain.NewValidationError(domain.FieldError{Field: "import", Error: err.Error()})
	}

	res, err := api.imports.ImportExpeditionFromSchema(ctx.Request().Context(), contextProfile(ctx), schema)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *expeditionApi) expeditionRetrieve(ctx echo.Context) error {
	exp, err := api.graph.GetExpedition(ctx.Request().Context(), contextProfile(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, contract.NewExpeditionView(exp))
}

func (api *expeditionApi) expeditionUpdate(ctx echo.Context) error {
	data := new(contract.UpdateExpeditionRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	data.TeacherProfileID = contextProfile(ctx)
	data.ExpeditionID = ctx.Param("id")

	exp, err := api.graph.UpdateExpedition(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, contract.NewExpeditionView(exp))
}

func (api *expeditionApi) expeditionGraph(ctx echo.Context) error {
	view, err := api.graph.GetGraph(ctx.Request().Context(), contextProfile(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *expeditionApi) expeditionPublish(ctx echo.Context) error {
	exp, err := api.graph.Publish(ctx.Request().Context(), contextProfile(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, contract.NewExpeditionView(exp))
}

func (api *expeditionApi) expeditionArchive(ctx echo.Context) error {
	exp, err := api.graph.Archive(ctx.Request().Context(), contextProfile(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, contract.NewExpeditionView(exp))
}

func (api *expeditionApi) pinCreate(ctx echo.Context) error {
	data := new(contract.NewPinRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	data.TeacherProfileID = contextProfile(ctx)
	data.ExpeditionID = ctx.Param("id")

	pin, err := api.graph.CreatePin(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return api.pinResponse(ctx, http.StatusCreated, pin)
}

func (api *expeditionApi) pinUpdate(ctx echo.Context) error {
	data := new(contract.UpdatePinRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	data.TeacherProfileID = contextProfile(ctx)
	data.PinID = ctx.Param("id")

	pin, err := api.graph.UpdatePin(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return api.pinResponse(ctx, http.StatusOK, pin)
}

func (api *expeditionApi) pinDestroy(ctx echo.Context) error {
	if err := api.graph.DeletePin(ctx.Request().Context(), contextProfile(ctx), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *expeditionApi) connectionCreate(ctx echo.Context) error {
	data := new(contract.NewConnectionRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	data.TeacherProfileID = contextProfile(ctx)
	data.ExpeditionID = ctx.Param("id")

	conn, err := api.graph.CreateConnection(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, contract.NewConnectionView(conn))
}

func (api *expeditionApi) connectionUpdate(ctx echo.Context) error {
	data := new(contract.UpdateConnectionRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	data.TeacherProfileID = contextProfile(ctx)
	data.ConnectionID = ctx.Param("id")

	conn, err := api.graph.UpdateConnection(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, contract.NewConnectionView(conn))
}

func (api *expeditionApi) connectionDestroy(ctx echo.Context) error {
	if err := api.graph.DeleteConnection(ctx.Request().Context(), contextProfile(ctx), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// pinResponse renders pin with its expedition's defaults applied.
func (api *expeditionApi) pinResponse(ctx echo.Context, code int, pin *domain.Pin) error {
	exp, err := api.graph.GetExpedition(ctx.Request().Context(), contextProfile(ctx), pin.ExpeditionID)
	if err != nil {
		return err
	}
	return ctx.JSON(code, contract.NewPinView(pin, exp))
}
