package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/estate-service/internal/observability"
	apperrors "github.com/spec-kit/estate-service/pkg/util"
)

func TestRequestTimeoutReachesHandlers(t *testing.T) {
	app := fiber.New()
	app.Use(requestTimeoutMiddleware(5 * time.Second))

	var hasDeadline bool
	app.Get("/probe-ctx", func(c *fiber.Ctx) error {
		_, hasDeadline = c.UserContext().Deadline()
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/probe-ctx", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, hasDeadline)
}

func TestErrorMiddlewareRendersDomainErrors(t *testing.T) {
	app := fiber.New()
	app.Use(errorHandlingMiddleware(zap.NewNop(), observability.NewMetrics()))

	app.Get("/conflict", func(c *fiber.Ctx) error {
		return apperrors.NewInvalidState("application already decided", nil)
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("unexpected")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/conflict", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
