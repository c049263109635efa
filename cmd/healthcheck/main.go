// Command healthcheck probes the server's /health endpoint and exits 0 when it
// answers 200, 1 otherwise. Intended for container HEALTHCHECK directives.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	url := flag.String("url", "http://localhost:"+port+"/health", "health endpoint to probe")
	timeout := flag.Duration("timeout", 10*time.Second, "request timeout")
	flag.Parse()

	if err := check(&http.Client{Timeout: *timeout}, *url); err != nil {
		fmt.Printf("Health check failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Health check passed")
}

func check(client *http.Client, url string) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status code %d", resp.StatusCode)
	}
	return nil
}
