package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

type movie struct {
	Name  string `json:"nombre"`
	Stock int    `json:"stock"`
}

type sale struct {
	Quantity  int    `json:"cantidad"`
	MovieName string `json:"pelicula"`
}

func main() {
	gatewayURL := flag.String("gateway", "http://localhost:3000", "API gateway base URL")
	movieName := flag.String("movie", "Avatar: El Sentido del Agua", "movie to buy tickets for")
	totalRequests := flag.Int("requests", 50, "concurrent purchase requests")
	quantity := flag.Int("quantity", 1, "tickets per request")
	flag.Parse()

	if *quantity <= 0 || *totalRequests <= 0 {
		fmt.Fprintln(os.Stderr, "requests and quantity must be positive")
		os.Exit(2)
	}

	client := resty.New().
		SetBaseURL(*gatewayURL).
		SetTimeout(30 * time.Second)

	before, err := stockOf(client, *movieName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read stock: %v\n", err)
		os.Exit(1)
	}
	soldBefore, err := soldOf(client, *movieName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read sales: %v\n", err)
		os.Exit(1)
	}

	var successCount, rejectedCount, errorCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *totalRequests; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()

			resp, err := client.R().
				SetHeader("Idempotency-Key", uuid.NewString()).
				SetBody(map[string]any{
					"nombre_cliente": fmt.Sprintf("user-%d", userID),
					"cantidad":       *quantity,
					"pelicula":       *movieName,
				}).
				Post("/api/compras")
			switch {
			case err != nil || resp.StatusCode() >= http.StatusInternalServerError:
				errorCount.Add(1)
			case resp.StatusCode() == http.StatusOK:
				successCount.Add(1)
			default:
				rejectedCount.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	after, err := stockOf(client, *movieName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read stock: %v\n", err)
		os.Exit(1)
	}
	soldAfter, err := soldOf(client, *movieName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read sales: %v\n", err)
		os.Exit(1)
	}

	success := int(successCount.Load())

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Movie:            %s\n", *movieName)
	fmt.Printf("Stock Before:     %d\n", before)
	fmt.Printf("Stock After:      %d\n", after)
	fmt.Printf("Total Requests:   %d x %d tickets\n", *totalRequests, *quantity)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Rejected:         %d\n", rejectedCount.Load())
	fmt.Printf("Errors:           %d\n", errorCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	failed := false

	if after < 0 {
		fmt.Printf("FAIL: negative stock %d\n", after)
		failed = true
	}

	if success*(*quantity) == before-after {
		fmt.Printf("PASS: %d tickets sold, stock dropped by %d\n", success*(*quantity), before-after)
	} else {
		fmt.Printf("FAIL: %d tickets sold but stock dropped by %d\n", success*(*quantity), before-after)
		failed = true
	}

	if soldAfter-soldBefore == before-after {
		fmt.Println("PASS: sales log matches stock consumed")
	} else {
		fmt.Printf("FAIL: sales log grew by %d, stock dropped by %d\n", soldAfter-soldBefore, before-after)
		failed = true
	}

	if want := min(*totalRequests, before / *quantity); errorCount.Load() == 0 && success != want {
		fmt.Printf("FAIL: expected %d successful purchases, got %d\n", want, success)
		failed = true
	}

	if failed {
		os.Exit(1)
	}
}

func stockOf(client *resty.Client, name string) (int, error) {
	resp, err := client.R().Get("/api/peliculas/" + url.PathEscape(name))
	if err != nil {
		return 0, err
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("GET /api/peliculas/%s: %s", name, resp.Status())
	}
	var m movie
	if err := json.Unmarshal(resp.Body(), &m); err != nil {
		return 0, err
	}
	return m.Stock, nil
}

func soldOf(client *resty.Client, name string) (int, error) {
	resp, err := client.R().Get("/api/ventas")
	if err != nil {
		return 0, err
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("GET /api/ventas: %s", resp.Status())
	}
	var sales []sale
	if err := json.Unmarshal(resp.Body(), &sales); err != nil {
		return 0, err
	}
	total := 0
	for _, s := range sales {
		if s.MovieName == name {
			total += s.Quantity
		}
	}
	return total, nil
}
