// Package gateway exposes a read-only HTTP facade over the live market
// cache: quote and book snapshots, fill previews, stream health, and the
// unclassified-error backlog. It never places or cancels orders.
package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/kuestmarket/kuest-go/clob/types"
	"github.com/kuestmarket/kuest-go/internal/bookstate"
	"github.com/kuestmarket/kuest-go/internal/errlog"
	"github.com/kuestmarket/kuest-go/internal/stream"
	"github.com/kuestmarket/kuest-go/pkg/fillmath"
)

// StatusSource reports stream liveness. *stream.Client satisfies it.
type StatusSource interface {
	Status() stream.Status
}

// Server wires the cache and error log behind a gin router.
type Server struct {
	store  *bookstate.Store
	status StatusSource
	errors *errlog.Log
}

// New builds the facade. status and errors may be nil; the matching
// endpoints then report accordingly.
func New(store *bookstate.Store, status StatusSource, errors *errlog.Log) *Server {
	return &Server{store: store, status: status, errors: errors}
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api")
	api.GET("/instruments", s.handleInstruments)
	api.GET("/books/:instrumentID", s.handleBook)
	api.GET("/quotes/:marketID", s.handleQuote)
	api.GET("/preview/fill", s.handleFillPreview)
	api.GET("/errors/unclassified", s.handleUnclassified)

	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	health := gin.H{"status": "ok"}
	if s.status != nil {
		health["stream"] = string(s.status.Status())
	}
	c.JSON(http.StatusOK, health)
}

func (s *Server) handleInstruments(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"instruments": s.store.Instruments()})
}

func (s *Server) handleBook(c *gin.Context) {
	id := c.Param("instrumentID")
	book := s.store.Book(id)
	if book == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown instrument"})
		return
	}
	c.JSON(http.StatusOK, book)
}

func (s *Server) handleQuote(c *gin.Context) {
	id := c.Param("marketID")
	quote := s.store.Quote(id)
	if quote == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown market"})
		return
	}
	c.JSON(http.StatusOK, quote)
}

// handleFillPreview walks the opposing side of the cached book for a
// hypothetical quantity. Preview only, never an execution price.
func (s *Server) handleFillPreview(c *gin.Context) {
	instrumentID := c.Query("instrument_id")
	side := types.Side(c.Query("side"))
	quantity := c.Query("quantity")

	if instrumentID == "" || !side.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "instrument_id and side=BUY|SELL are required"})
		return
	}
	requested, err := decimal.NewFromString(quantity)
	if err != nil || !requested.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be a positive decimal"})
		return
	}

	book := s.store.Book(instrumentID)
	if book == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown instrument"})
		return
	}

	ladder := book.Asks
	if side == types.SideSell {
		ladder = book.Bids
	}
	levels := make([]fillmath.Level, 0, len(ladder))
	for _, lvl := range ladder {
		levels = append(levels, fillmath.LevelFromStrings(lvl.Price, lvl.Size))
	}

	fill := fillmath.MatchFill(side, requested, levels)
	c.JSON(http.StatusOK, gin.H{
		"filled_shares": fill.FilledShares.String(),
		"total_cost":    fill.TotalCost.String(),
		"avg_price":     fill.AvgPrice.String(),
		"partial":       fill.Partial(requested),
	})
}

func (s *Server) handleUnclassified(c *gin.Context) {
	if s.errors == nil {
		c.JSON(http.StatusOK, gin.H{"entries": []errlog.Entry{}})
		return
	}
	entries, err := s.errors.Recent(100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []errlog.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
