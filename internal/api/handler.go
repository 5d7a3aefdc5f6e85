package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mr1hm/go-seismic-sources/internal/compiler"
	"github.com/mr1hm/go-seismic-sources/internal/events"
	"github.com/mr1hm/go-seismic-sources/internal/models"
	"github.com/mr1hm/go-seismic-sources/internal/repository"
)

// Ingester compiles and stores an uploaded catalog.
type Ingester interface {
	Ingest(ctx context.Context, name string, r io.Reader) (*models.Run, *compiler.Result, error)
}

type Handler struct {
	repo          repository.CatalogRepository
	ingester      Ingester
	broadcaster   *events.Broadcaster
	maxUploadSize int64
}

const defaultMaxUploadSize = 32 << 20

func NewHandler(repo repository.CatalogRepository, ingester Ingester, broadcaster *events.Broadcaster, maxUploadSize int64) *Handler {
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxUploadSize
	}
	return &Handler{
		repo:          repo,
		ingester:      ingester,
		broadcaster:   broadcaster,
		maxUploadSize: maxUploadSize,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/api/runs", h.getRuns)
	r.GET("/api/sources", h.getSources)
	r.GET("/api/sources/:id/mfd", h.getMFD)
	r.POST("/api/catalogs", h.postCatalog)
	r.GET("/api/events", h.streamEvents)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getRuns(c *gin.Context) {
	limit := 20
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 500 {
			limit = lim
		}
	}

	runs, err := h.repo.ListRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch runs",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (h *Handler) getSources(c *gin.Context) {
	filter := repository.Filter{
		Limit: 100, // Default to 100 sources if limit param not supplied
	}

	filter.RunID = c.Query("run")
	if k := c.Query("kind"); k != "" {
		kind := models.ParseSourceKind(k)
		if kind == models.KindUnknown {
			c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be area or fault"})
			return
		}
		filter.Kind = &kind
	}
	if m := c.Query("min_mmax"); m != "" {
		if mag, err := strconv.ParseFloat(m, 64); err == nil {
			filter.MinMaxMagnitude = &mag
		}
	}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 1000 {
			filter.Limit = lim
		}
	}
	if o := c.Query("offset"); o != "" {
		if off, err := strconv.Atoi(o); err == nil && off >= 0 {
			filter.Offset = off
		}
	}

	sources, err := h.repo.ListSources(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch sources",
		})
		return
	}

	fc := toGeoJSON(sources)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

type mfdBin struct {
	Magnitude float64 `json:"magnitude"`
	Rate      float64 `json:"rate"`
}

type mechanismMFD struct {
	Strike          float64  `json:"strike"`
	Dip             float64  `json:"dip"`
	Rake            float64  `json:"rake"`
	MinMagnitude    float64  `json:"min_magnitude"`
	BinWidth        float64  `json:"bin_width"`
	TotalRate       float64  `json:"total_rate"`
	TotalMomentRate float64  `json:"total_moment_rate"`
	Bins            []mfdBin `json:"bins"`
}

func (h *Handler) getMFD(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source id"})
		return
	}

	stored, err := h.repo.GetMFDs(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch distribution",
		})
		return
	}

	mechs := make([]mechanismMFD, 0, len(stored))
	for _, s := range stored {
		d := s.Dist()
		m := mechanismMFD{
			Strike:          s.Mechanism.Strike,
			Dip:             s.Mechanism.Dip,
			Rake:            s.Mechanism.Rake,
			MinMagnitude:    d.MinMagnitude(),
			BinWidth:        d.Width(),
			TotalRate:       d.TotalRate(),
			TotalMomentRate: d.TotalMomentRate(),
			Bins:            make([]mfdBin, d.Num()),
		}
		for i := range m.Bins {
			m.Bins[i] = mfdBin{Magnitude: d.X(i), Rate: d.Y(i)}
		}
		mechs = append(mechs, m)
	}

	c.JSON(http.StatusOK, gin.H{"source_id": id, "mechanisms": mechs})
}

func (h *Handler) postCatalog(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		name = "upload"
	}

	body := http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)
	run, _, err := h.ingester.Ingest(c.Request.Context(), name, body)
	if err != nil {
		var (
			cfgErr *compiler.ConfigurationError
			maxErr *http.MaxBytesError
		)
		switch {
		case errors.As(err, &maxErr):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "catalog too large"})
		case errors.As(err, &cfgErr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compile catalog"})
		}
		return
	}

	c.JSON(http.StatusCreated, run)
}

// streamEvents relays per-source outcomes as server-sent events until the
// client disconnects or the broadcaster closes.
func (h *Handler) streamEvents(c *gin.Context) {
	if h.broadcaster == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event stream disabled"})
		return
	}

	id, ch := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(id)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case e, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("outcome", e)
			return true
		}
	})
}
