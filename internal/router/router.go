package router // package router defines how HTTP routes are registered for the API

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/unrolled/secure"

	"github.com/iliyamo/recipe-backend/internal/middleware"
)

// Route is one entry of the route table.  Gates run in declared order
// before Handler.
type Route struct {
	Method  string
	Path    string
	Handler echo.HandlerFunc
	Gates   []echo.MiddlewareFunc
}

// Register mounts every route on e.
func Register(e *echo.Echo, routes []Route) {
	for _, r := range routes {
		e.Add(r.Method, r.Path, r.Handler, r.Gates...)
	}
}

// Options configures the global middleware stack.
type Options struct {
	CORSOrigins []string
	BodyLimit   string // e.g. "1M"
	Production  bool
	Log         *slog.Logger
}

// New builds an Echo instance with the global middleware stack and the
// given routes mounted.
func New(opts Options, routes []Route) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = jsonErrorHandler(opts.Log)

	if opts.BodyLimit == "" {
		opts.BodyLimit = "1M"
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	sec := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        opts.Production,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
	})

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(opts.Log))
	e.Use(echo.WrapMiddleware(sec.Handler))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: opts.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit(opts.BodyLimit))

	Register(e, routes)
	return e
}

// jsonErrorHandler renders errors that reach Echo (unknown routes, wrong
// methods, oversized bodies, panics) as {"message": ...}.
func jsonErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := "Server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(code)
			}
		}
		if code >= http.StatusInternalServerError {
			log.ErrorContext(c.Request().Context(), "unhandled error",
				slog.String("path", c.Request().URL.Path), slog.Any("error", err))
			msg = "Server error"
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, echo.Map{"message": msg})
		}
		if werr != nil {
			log.ErrorContext(c.Request().Context(), "write error response", slog.Any("error", werr))
		}
	}
}
