package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/cine-boletos/internal/core/domain"
	"github.com/rl1809/cine-boletos/internal/core/service"
)

const (
	msgMissingData       = "Faltan datos necesarios"
	msgMovieNotFound     = "Película no encontrada"
	msgInsufficientStock = "No hay suficientes boletos disponibles"
	msgDuplicatePurchase = "Compra duplicada"
	msgPurchaseFailed    = "Error interno al procesar la compra."
	msgPurchaseOK        = "Compra realizada con éxito"
	msgMoviesFailed      = "Error al obtener películas"
	msgSalesFailed       = "Error al obtener ventas"
	msgClearFailed       = "Error al limpiar ventas"
	msgSalesCleared      = "Historial de ventas limpio"
)

// IdempotencyHeader carries an optional client key that makes a purchase
// safe to retry.
const IdempotencyHeader = "Idempotency-Key"

type PurchaseHandler struct {
	purchases *service.PurchaseService
}

// PurchaseHTTPRequest is the body of POST /comprar. Cantidad is kept raw
// because clients send it either as a number or as a numeric string.
type PurchaseHTTPRequest struct {
	CustomerName string          `json:"nombre_cliente"`
	Quantity     json.RawMessage `json:"cantidad"`
	MovieName    string          `json:"pelicula"`
}

type PurchaseHTTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Stock   int    `json:"stock"`
}

func NewPurchaseHandler(purchases *service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases}
}

func (h *PurchaseHandler) Register(r gin.IRouter) {
	r.POST("/comprar", h.Purchase)
}

func (h *PurchaseHandler) Purchase(c *gin.Context) {
	var body PurchaseHTTPRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingData})
		return
	}

	quantity, ok := parseQuantity(body.Quantity)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingData})
		return
	}

	result, err := h.purchases.Purchase(c.Request.Context(), domain.PurchaseRequest{
		CustomerName:   body.CustomerName,
		Quantity:       quantity,
		MovieName:      body.MovieName,
		IdempotencyKey: c.GetHeader(IdempotencyHeader),
	})
	if err != nil {
		status, message := purchaseError(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, PurchaseHTTPResponse{
		Success: true,
		Message: msgPurchaseOK,
		Stock:   result.RemainingStock,
	})
}

func purchaseError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, msgMissingData
	case errors.Is(err, domain.ErrMovieNotFound):
		return http.StatusNotFound, msgMovieNotFound
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusBadRequest, msgInsufficientStock
	case errors.Is(err, domain.ErrDuplicateRequest):
		return http.StatusConflict, msgDuplicatePurchase
	default:
		return http.StatusInternalServerError, msgPurchaseFailed
	}
}

// parseQuantity accepts a JSON integer or a string holding one. A missing
// field, null, fractions and anything else report !ok.
func parseQuantity(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, false
		}
		return n, true
	}

	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(num.String())
	if err != nil {
		return 0, false
	}
	return n, true
}

type MovieHandler struct {
	catalog *service.CatalogService
}

func NewMovieHandler(catalog *service.CatalogService) *MovieHandler {
	return &MovieHandler{catalog: catalog}
}

func (h *MovieHandler) Register(r gin.IRouter) {
	r.GET("/peliculas", h.ListMovies)
	r.GET("/peliculas/:nombre", h.GetMovie)
}

func (h *MovieHandler) ListMovies(c *gin.Context) {
	movies, err := h.catalog.ListMovies(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgMoviesFailed})
		return
	}
	c.JSON(http.StatusOK, movies)
}

func (h *MovieHandler) GetMovie(c *gin.Context) {
	movie, err := h.catalog.GetMovie(c.Request.Context(), c.Param("nombre"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, movie)
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingData})
	case errors.Is(err, domain.ErrMovieNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msgMovieNotFound})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgMoviesFailed})
	}
}

type SalesHandler struct {
	sales *service.SalesService
}

func NewSalesHandler(sales *service.SalesService) *SalesHandler {
	return &SalesHandler{sales: sales}
}

func (h *SalesHandler) Register(r gin.IRouter) {
	r.GET("/ventas", h.ListSales)
	r.DELETE("/limpiarVentas", h.ClearSales)
}

func (h *SalesHandler) ListSales(c *gin.Context) {
	sales, err := h.sales.ListSales(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgSalesFailed})
		return
	}
	c.JSON(http.StatusOK, sales)
}

func (h *SalesHandler) ClearSales(c *gin.Context) {
	if err := h.sales.ClearSales(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgClearFailed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msgSalesCleared})
}
