package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/darasapp/darasa/core"
	"github.com/darasapp/darasa/core/session"
)

type sessionApi struct {
	routes session.RouteTable
}

func registerSessionAPI(g *echo.Group, routes session.RouteTable) {
	api := sessionApi{routes: routes}

	// JWT is optional here: anonymous callers get the signed-out decision
	cfg := appJWTConfig
	cfg.Skipper = func(ctx echo.Context) bool {
		return ctx.Request().Header.Get(echo.HeaderAuthorization) == ""
	}

	sg := g.Group("/session")
	sg.GET("/navigate", api.navigate, middleware.JWTWithConfig(cfg))
}

// Handlers

// navigate evaluates the route guard for the caller's session and the
// requested path. The decision mirrors what the web client computes
// locally, so both sides agree on where a navigation lands.
func (api *sessionApi) navigate(ctx echo.Context) error {
	var data NavigateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NavigateRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	st := session.State{Ready: true}
	if claims, err := getContextClaims(ctx); err == nil {
		st.Identity = &session.Identity{UID: claims.Subject, Email: claims.Email}
		st.Role = session.ParseRole(claims.Role)
	}

	decision := session.Decide(st, data.Path, api.routes)
	return ctx.JSON(http.StatusOK, NavigateResponse{
		Decision:   decision.Kind.String(),
		RedirectTo: decision.RedirectTo,
	})
}

type (
	NavigateRequest struct {
		Path string `json:"path" query:"path" validate:"required,startswith=/"`
	}

	NavigateResponse struct {
		Decision   string `json:"decision"`
		RedirectTo string `json:"redirect_to,omitempty"`
	}
)

func (nr *NavigateRequest) Validate() error {
	nr.Path = core.CleanString(nr.Path)
	return core.Validate.Struct(nr)
}
