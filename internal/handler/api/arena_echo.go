package api

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"ChallengeArena/internal/domain/models"
	"ChallengeArena/internal/services/news"
	"ChallengeArena/internal/usecase"
	xhttp "ChallengeArena/pkg/http"
	xlogger "ChallengeArena/pkg/logger"
)

const (
	adminHeader       = "X-Admin-Token"
	recommendationCap = 20
)

// ArenaEchoHandler serves the read API and the admin operations.
type ArenaEchoHandler struct {
	logger     *xlogger.Logger
	query      *usecase.ArenaQuery
	chart      *usecase.ChartUseCase
	adminToken string
}

func NewArenaEchoHandler(logger *xlogger.Logger, query *usecase.ArenaQuery, chart *usecase.ChartUseCase, adminToken string) *ArenaEchoHandler {
	return &ArenaEchoHandler{logger: logger, query: query, chart: chart, adminToken: adminToken}
}

func (h *ArenaEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/status", h.Status)
	g.GET("/snapshot", h.Snapshot)
	g.GET("/leaderboard", h.Leaderboard)
	g.GET("/logs", h.Logs)
	g.GET("/bots", h.Bots)
	g.GET("/bots/:id", h.Bot)
	g.GET("/bots/:id/archive", h.Archive)
	g.GET("/window", h.Window)
	g.GET("/trades", h.Trades)
	g.GET("/trades/:id", h.Trade)
	g.GET("/recommendations", h.Recommendations)
	g.GET("/chart/:symbol", h.Chart)
	g.POST("/news/recommendation", h.NewsRecommendation)

	g.POST("/challenge/start", h.StartChallenge, h.requireAdmin)
	g.POST("/bots/:id/disqualify", h.Disqualify, h.requireAdmin)
}

// requireAdmin rejects every call when no token is configured.
func (h *ArenaEchoHandler) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		got := c.Request().Header.Get(adminHeader)
		if got == "" {
			got = strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		}
		if h.adminToken == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.adminToken)) != 1 {
			h.logger.Warn("admin request rejected",
				xlogger.String("path", c.Path()),
				xlogger.String("remote", c.RealIP()))
			return xhttp.AppErrorResponse(c, xhttp.UnauthorizedError("admin token required"))
		}
		return next(c)
	}
}

func (h *ArenaEchoHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.query.Status())
}

func (h *ArenaEchoHandler) Snapshot(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.query.Snapshot())
}

func (h *ArenaEchoHandler) Leaderboard(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.query.Leaderboard())
}

func (h *ArenaEchoHandler) Logs(c echo.Context) error {
	req := &models.LogsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.query.Logs(req.Limit))
}

func (h *ArenaEchoHandler) Bots(c echo.Context) error {
	bots := h.query.Roster()
	return xhttp.ListResponse(c, bots, int64(len(bots)))
}

func (h *ArenaEchoHandler) Bot(c echo.Context) error {
	req := &models.BotRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p, err := h.query.Bot(req.ID)
	if err != nil {
		return h.fail(c, err)
	}
	return xhttp.SuccessResponse(c, p)
}

func (h *ArenaEchoHandler) Archive(c echo.Context) error {
	req := &models.ArchiveRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	since := xhttp.ParseTimeDefault(req.Since, time.Time{})
	evs, err := h.query.Archive(c.Request().Context(), req.ID, since, req.Limit)
	if err != nil {
		return h.fail(c, err)
	}
	return xhttp.ListResponse(c, evs, int64(len(evs)))
}

func (h *ArenaEchoHandler) Window(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.query.Window())
}

func (h *ArenaEchoHandler) Trades(c echo.Context) error {
	trades := h.query.Trades(0)
	return xhttp.ListResponse(c, trades, int64(len(trades)))
}

func (h *ArenaEchoHandler) Trade(c echo.Context) error {
	req := &models.TradeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	d, err := h.query.Trade(req.ID)
	if err != nil {
		return h.fail(c, err)
	}
	return xhttp.SuccessResponse(c, d)
}

func (h *ArenaEchoHandler) Recommendations(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.query.Trades(recommendationCap))
}

func (h *ArenaEchoHandler) Chart(c echo.Context) error {
	req := &models.ChartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.chart.History(c.Request().Context(), req.Symbol, req.Period)
	if err != nil {
		h.logger.Error("chart usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("price history unavailable").WithError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

// NewsRecommendation scores unlabelled items by keyword before recommending.
func (h *ArenaEchoHandler) NewsRecommendation(c echo.Context) error {
	req := &models.RecommendationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, news.Recommend(news.AnalyzeBatch(req.Items)))
}

func (h *ArenaEchoHandler) StartChallenge(c echo.Context) error {
	w := h.query.StartChallenge()
	h.logger.Info("challenge started by admin", xlogger.Any("end", w.End))
	return xhttp.SuccessResponse(c, w)
}

func (h *ArenaEchoHandler) Disqualify(c echo.Context) error {
	req := &models.DisqualifyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	s, err := h.query.Disqualify(req.ID, req.Reason)
	if err != nil {
		return h.fail(c, err)
	}
	return xhttp.SuccessResponse(c, s)
}

func (h *ArenaEchoHandler) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, usecase.ErrBotNotFound):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("bot %q not found", c.Param("id")))
	case errors.Is(err, usecase.ErrTradeNotFound):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("trade %s not found", c.Param("id")))
	case errors.Is(err, usecase.ErrAlreadyDisqualified):
		return xhttp.AppErrorResponse(c, xhttp.ConflictError(err.Error()))
	case errors.Is(err, usecase.ErrArchiveDisabled):
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError(err.Error()))
	}
	h.logger.Error("arena request failed", xlogger.String("path", c.Path()), xlogger.Error(err))
	return xhttp.AppErrorResponse(c, err)
}
