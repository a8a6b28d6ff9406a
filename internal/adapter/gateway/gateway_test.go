package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type request struct {
	method string
	path   string
	body   string
	header http.Header
}

type recorded struct {
	mu   sync.Mutex
	last request
}

func (r *recorded) get() request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// backend answers every request with status and body and remembers the
// last request it saw.
func backend(t *testing.T, status int, body string) (*httptest.Server, *recorded) {
	t.Helper()
	last := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		last.mu.Lock()
		last.last = request{method: r.Method, path: r.URL.Path, body: string(b), header: r.Header.Clone()}
		last.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, last
}

func newGateway(b Backends) *gin.Engine {
	h := NewHandler(NewClient(2*time.Second), b, nil)
	r := gin.New()
	r.GET("/health", h.HealthCheck)
	h.Register(r)
	return r
}

func send(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGateway_ForwardsMovies(t *testing.T) {
	movies, last := backend(t, http.StatusOK, `[{"id":1,"nombre":"Avatar","stock":35}]`)
	r := newGateway(Backends{Movies: movies.URL})

	w := send(r, http.MethodGet, "/api/peliculas", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":1,"nombre":"Avatar","stock":35}]`, w.Body.String())
	assert.Equal(t, "/peliculas", last.get().path)
}

func TestGateway_ForwardsMovieByName(t *testing.T) {
	movies, last := backend(t, http.StatusNotFound, `{"error":"Película no encontrada"}`)
	r := newGateway(Backends{Movies: movies.URL})

	w := send(r, http.MethodGet, "/api/peliculas/Doctor%20Strange", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "/peliculas/Doctor Strange", last.get().path)
}

func TestGateway_PurchaseForwardsBodyAndHeaders(t *testing.T) {
	purchases, last := backend(t, http.StatusOK, `{"success":true,"message":"Compra realizada con éxito","stock":4}`)
	r := newGateway(Backends{Purchases: purchases.URL})

	body := `{"nombre_cliente":"Ana","cantidad":1,"pelicula":"Avatar"}`
	w := send(r, http.MethodPost, "/api/compras", body, map[string]string{
		"Content-Type":    "application/json",
		"Idempotency-Key": "k-1",
	})

	got := last.get()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/comprar", got.path)
	assert.JSONEq(t, body, got.body)
	assert.Equal(t, "k-1", got.header.Get("Idempotency-Key"))
	assert.Equal(t, "application/json", got.header.Get("Content-Type"))
}

func TestGateway_RelaysBackendErrors(t *testing.T) {
	tests := []struct {
		status int
		body   string
	}{
		{http.StatusBadRequest, `{"error":"No hay suficientes boletos disponibles"}`},
		{http.StatusNotFound, `{"error":"Película no encontrada"}`},
		{http.StatusConflict, `{"error":"Compra duplicada"}`},
		{http.StatusInternalServerError, `{"error":"Error interno al procesar la compra."}`},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			purchases, _ := backend(t, tt.status, tt.body)
			r := newGateway(Backends{Purchases: purchases.URL})

			w := send(r, http.MethodPost, "/api/compras", `{}`, nil)

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestGateway_BackendUnreachable(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	tests := []struct {
		method  string
		path    string
		wantErr string
	}{
		{http.MethodGet, "/api/peliculas", "Error al obtener películas"},
		{http.MethodGet, "/api/ventas", "Error al obtener ventas"},
		{http.MethodPost, "/api/compras", "Error al realizar la compra"},
		{http.MethodDelete, "/api/limpiarVentas", "Error al limpiar ventas"},
	}

	r := newGateway(Backends{Movies: deadURL, Sales: deadURL, Purchases: deadURL})
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := send(r, tt.method, tt.path, `{}`, nil)

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantErr, body["error"])
		})
	}
}

func TestGateway_MissingBackendURL(t *testing.T) {
	r := newGateway(Backends{})

	w := send(r, http.MethodGet, "/api/ventas", "", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Error de configuración del servidor"}`, w.Body.String())
}

func TestGateway_ClearSales(t *testing.T) {
	sales, last := backend(t, http.StatusOK, `{"message":"Historial de ventas limpio"}`)
	r := newGateway(Backends{Sales: sales.URL})

	w := send(r, http.MethodDelete, "/api/limpiarVentas", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	got := last.get()
	assert.Equal(t, http.MethodDelete, got.method)
	assert.Equal(t, "/limpiarVentas", got.path)
}

func TestGateway_Health(t *testing.T) {
	up, _ := backend(t, http.StatusOK, `{"status":"healthy"}`)
	down, _ := backend(t, http.StatusServiceUnavailable, `{"status":"unhealthy"}`)

	t.Run("all healthy", func(t *testing.T) {
		r := newGateway(Backends{Movies: up.URL, Sales: up.URL, Purchases: up.URL})
		w := send(r, http.MethodGet, "/health", "", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Status   string            `json:"status"`
			Services map[string]string `json:"services"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body.Status)
		assert.Len(t, body.Services, 3)
	})

	t.Run("one down", func(t *testing.T) {
		r := newGateway(Backends{Movies: up.URL, Sales: down.URL, Purchases: up.URL})
		w := send(r, http.MethodGet, "/health", "", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Status   string            `json:"status"`
			Services map[string]string `json:"services"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "degraded", body.Status)
		assert.Equal(t, "unhealthy", body.Services["ventas"])
	})
}

func TestCORSPreflight(t *testing.T) {
	r := newGateway(Backends{})

	w := send(r, http.MethodOptions, "/api/compras", "", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
