package api

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"dealboard/board"
	"dealboard/domain"
	"dealboard/exchange"
	"dealboard/view"
)

const importMaxSize = 8 << 20

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, b Board, logger *log.Logger) {
	e.GET("/api/cards", getCards(b, logger))
	e.POST("/api/cards", postCard(b))
	e.PATCH("/api/cards/:id", patchCard(b))
	e.DELETE("/api/cards/:id", deleteCard(b))
	e.POST("/api/cards/:id/move", moveCard(b))

	e.GET("/api/board/summary", getSummary(b))
	e.GET("/api/board/export", getExport(b))
	e.POST("/api/board/import", postImport(b), GzipRequestMiddleware())
	e.POST("/api/board/reset", postReset(b))

	e.GET("/api/status", getStatus(b))
	e.GET("/api/categories", getCategories(b))
	e.POST("/api/categories", postCategory(b))
	e.GET("/healthz", healthz())
}

type cardsResponse struct {
	Cards  []domain.Card `json:"cards"`
	Status board.Status  `json:"status"`
}

type summaryResponse struct {
	Groups []groupSummary `json:"groups"`
	Total  float64        `json:"total"`
	Status board.Status   `json:"status"`
}

type groupSummary struct {
	Group domain.Group  `json:"group"`
	Cards []domain.Card `json:"cards"`
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func getCards(b Board, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics := newCardRequestMetrics(logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		filterStart := time.Now()
		cards := view.FilterAndSearch(b.Cards(), c.QueryParam("group"), c.QueryParam("q"))
		metrics.ObserveFilter(time.Since(filterStart))
		metrics.SetCardsReturned(len(cards))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, cardsResponse{Cards: cards, Status: b.Status()})
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func getSummary(b Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		cards := b.Cards()
		groups := b.Groups()
		excluded := splitParam(c.QueryParam("exclude"))

		partitions := view.GroupBy(cards, groups)
		out := summaryResponse{
			Groups: make([]groupSummary, 0, len(groups)),
			Total:  view.AggregateTotal(cards, excluded...),
			Status: b.Status(),
		}
		for _, g := range groups {
			out.Groups = append(out.Groups, groupSummary{Group: g, Cards: partitions[g.ID]})
		}
		return c.JSON(http.StatusOK, out)
	}
}

type insertRequest struct {
	GroupID string        `json:"groupId"`
	Fields  domain.Fields `json:"fields"`
}

func postCard(b Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req insertRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		card, err := b.InsertAtTop(c.Request().Context(), req.GroupID, req.Fields)
		if errors.Is(err, board.ErrUnknownGroup) {
			return c.String(http.StatusBadRequest, "unknown group")
		}
		if err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusCreated, card)
	}
}

func patchCard(b Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		var patch domain.CardPatch
		if err := decodeBody(c, &patch); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		card, err := b.Patch(c.Request().Context(), c.Param("id"), patch)
		switch {
		case errors.Is(err, board.ErrNotFound):
			return c.NoContent(http.StatusNotFound)
		case errors.Is(err, board.ErrUnknownGroup):
			return c.String(http.StatusBadRequest, "unknown group")
		case err != nil:
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, card)
	}
}

func deleteCard(b Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !b.Remove(c.Request().Context(), c.Param("id")) {
			return c.NoContent(http.StatusNotFound)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

type moveRequest struct {
	GroupID  string          `json:"groupId"`
	AnchorID string          `json:"anchorId,omitempty"`
	Position domain.Position `json:"position,omitempty"`
}

// moveCard is the drop target of a drag gesture. With an anchor it is a
// relative-position reorder; without one the card is appended to the end of
// the destination group.
func moveCard(b Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req moveRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		ctx := c.Request().Context()
		id := c.Param("id")

		var err error
		if req.AnchorID == "" {
			err = b.AppendToGroup(ctx, id, req.GroupID)
		} else {
			if req.Position != domain.Above && req.Position != domain.Below {
				return c.String(http.StatusBadRequest, "invalid position")
			}
			err = b.Reorder(ctx, id, req.GroupID, req.AnchorID, req.Position)
		}
		switch {
		case errors.Is(err, board.ErrNotFound):
			return c.NoContent(http.StatusNotFound)
		case errors.Is(err, board.ErrUnknownGroup):
			return c.String(http.StatusBadRequest, "unknown group")
		case err != nil:
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func getExport(b Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := exchange.Export(exchange.Document{
			Cards:      b.Cards(),
			Categories: b.Categories(),
		})
		if err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="dealboard.json"`)
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
	}
}

func postImport(b Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := io.ReadAll(io.LimitReader(c.Request().Body, importMaxSize))
		if err != nil {
			return c.String(http.StatusBadRequest, "unreadable body")
		}
		doc, err := exchange.Import(data)
		if errors.Is(err, exchange.ErrMalformedImport) {
			return c.String(http.StatusBadRequest, err.Error())
		}
		if err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}

		ctx := c.Request().Context()
		b.ReplaceAll(ctx, doc.Cards)
		for _, cat := range doc.Categories {
			b.AddCategory(ctx, cat)
		}
		return c.JSON(http.StatusAccepted, map[string]int{"imported": len(doc.Cards)})
	}
}

func postReset(b Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		removed := b.Reset(c.Request().Context())
		return c.JSON(http.StatusOK, map[string]int{"removed": len(removed)})
	}
}

func getStatus(b Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]board.Status{"status": b.Status()})
	}
}

func getCategories(b Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string][]string{"categories": b.Categories()})
	}
}

type categoryRequest struct {
	Name string `json:"name"`
}

func postCategory(b Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req categoryRequest
		if err := decodeBody(c, &req); err != nil || strings.TrimSpace(req.Name) == "" {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		added := b.AddCategory(c.Request().Context(), strings.TrimSpace(req.Name))
		if !added {
			return c.NoContent(http.StatusConflict)
		}
		return c.NoContent(http.StatusCreated)
	}
}

func decodeBody(c echo.Context, dst any) error {
	dec := sonic.ConfigStd.NewDecoder(c.Request().Body)
	return dec.Decode(dst)
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
