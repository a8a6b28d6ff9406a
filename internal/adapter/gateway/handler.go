package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgConfigError    = "Error de configuración del servidor"
	msgMoviesFailed   = "Error al obtener películas"
	msgSalesFailed    = "Error al obtener ventas"
	msgPurchaseFailed = "Error al realizar la compra"
	msgClearFailed    = "Error al limpiar ventas"
)

// headers copied from the browser request onto backend calls
var forwardedHeaders = []string{"Content-Type", "Idempotency-Key", "X-Request-ID"}

type Backends struct {
	Movies    string
	Sales     string
	Purchases string
}

type Handler struct {
	client   *Client
	backends Backends
	logger   *zap.Logger
}

func NewHandler(client *Client, backends Backends, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{client: client, backends: backends, logger: logger}
}

func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api", CORS())
	api.OPTIONS("/*path", func(c *gin.Context) {})
	api.GET("/peliculas", h.ListMovies)
	api.GET("/peliculas/:nombre", h.GetMovie)
	api.GET("/ventas", h.ListSales)
	api.POST("/compras", h.Purchase)
	api.DELETE("/limpiarVentas", h.ClearSales)
}

func (h *Handler) ListMovies(c *gin.Context) {
	h.forward(c, h.backends.Movies, "/peliculas", nil, msgMoviesFailed)
}

func (h *Handler) GetMovie(c *gin.Context) {
	h.forward(c, h.backends.Movies, "/peliculas/"+url.PathEscape(c.Param("nombre")), nil, msgMoviesFailed)
}

func (h *Handler) ListSales(c *gin.Context) {
	h.forward(c, h.backends.Sales, "/ventas", nil, msgSalesFailed)
}

func (h *Handler) ClearSales(c *gin.Context) {
	h.forward(c, h.backends.Sales, "/limpiarVentas", nil, msgClearFailed)
}

func (h *Handler) Purchase(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Faltan datos necesarios"})
		return
	}
	h.forward(c, h.backends.Purchases, "/comprar", body, msgPurchaseFailed)
}

func (h *Handler) forward(c *gin.Context, baseURL, path string, body []byte, failure string) {
	header := http.Header{}
	for _, name := range forwardedHeaders {
		if v := c.GetHeader(name); v != "" {
			header.Set(name, v)
		}
	}

	resp, err := h.client.Do(c.Request.Context(), c.Request.Method, baseURL, path, body, header)
	if errors.Is(err, ErrBackendNotConfigured) {
		h.logger.Error("backend url not configured", zap.String("path", path))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgConfigError})
		return
	}
	if err != nil {
		h.logger.Error("backend call failed",
			zap.String("method", c.Request.Method),
			zap.String("backend", baseURL),
			zap.String("path", path),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": failure})
		return
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/json; charset=utf-8"
	}
	c.Data(resp.Status, contentType, resp.Body)
}

// HealthCheck probes every backend's /health concurrently. The gateway
// itself stays up, so the answer is always 200 with "healthy" or
// "degraded".
func (h *Handler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	backends := map[string]string{
		"peliculas": h.backends.Movies,
		"ventas":    h.backends.Sales,
		"compras":   h.backends.Purchases,
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		statuses = make(map[string]string, len(backends))
	)
	for name, base := range backends {
		name, base := name, base
		wg.Add(1)
		go func() {
			defer wg.Done()
			status := "healthy"
			resp, err := h.client.Do(ctx, http.MethodGet, base, "/health", nil, nil)
			if err != nil || resp.Status != http.StatusOK {
				status = "unhealthy"
			}
			mu.Lock()
			statuses[name] = status
			mu.Unlock()
		}()
	}
	wg.Wait()

	overall := "healthy"
	for _, s := range statuses {
		if s != "healthy" {
			overall = "degraded"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   overall,
		"service":  "api-gateway",
		"services": statuses,
	})
}

// CORS allows the browser client served from another origin.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Idempotency-Key, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
