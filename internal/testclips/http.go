package testclips

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gesturelab/distill/internal/domain/types"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := marshalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// marshalJSON marshals a struct to JSON
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct
func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitClips posts clips to /predict concurrently using a worker pool
func submitClips(ctx context.Context, config *Config, clips []Clip, stats *Stats) error {
	log.Printf("📤 Submitting %d clips with %d workers...", len(clips), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/predict"

	// Counters for statistics
	var (
		successful int64
		failed     int64
		submitted  int64
		executed   int64
		suppressed int64
	)

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	clipChan := make(chan Clip, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for clip := range clipChan {
				select {
				case <-ctx.Done():
					return
				default:
					prediction, err := submitSingleClip(ctx, client, url, clip)

					// Update counters
					atomic.AddInt64(&submitted, 1)
					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("⚠️  Failed to submit clip %s: %v", clip.ClipID, err)
						}
					} else {
						atomic.AddInt64(&successful, 1)
						if prediction.Execute {
							atomic.AddInt64(&executed, 1)
						} else {
							atomic.AddInt64(&suppressed, 1)
						}
					}

					// Progress reporting
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						succ := atomic.LoadInt64(&successful)
						fail := atomic.LoadInt64(&failed)
						supp := atomic.LoadInt64(&suppressed)

						if config.Verbose {
							log.Printf("📊 Progress: %d/%d submitted (success: %d, failed: %d, suppressed: %d)",
								total, len(clips), succ, fail, supp)
						} else {
							fmt.Printf("\r📤 Submitted: %d/%d (success: %d, failed: %d, suppressed: %d)",
								total, len(clips), succ, fail, supp)
						}
					}
				}
			}
		}()
	}

	// Send clips to workers
	go func() {
		defer close(clipChan)
		for _, clip := range clips {
			select {
			case <-ctx.Done():
				return
			case clipChan <- clip:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	// Update stats
	stats.ClipsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.ClipsSuccessful = int(atomic.LoadInt64(&successful))
	stats.ClipsFailed = int(atomic.LoadInt64(&failed))
	stats.Executed = int(atomic.LoadInt64(&executed))
	stats.Suppressed = int(atomic.LoadInt64(&suppressed))

	log.Printf(`✅ Clip submission completed:
   Successful: %d
   Failed: %d
   Executed: %d
   Suppressed: %d
`, stats.ClipsSuccessful, stats.ClipsFailed, stats.Executed, stats.Suppressed)

	return nil
}

// submitSingleClip posts one clip and parses the prediction.
func submitSingleClip(ctx context.Context, client *HTTPClient, url string, clip Clip) (types.Prediction, error) {
	resp, err := client.Post(ctx, url, PredictRequest{Features: clip.Features, Type: clip.Type})
	if err != nil {
		return types.Prediction{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return types.Prediction{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return types.Prediction{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var prediction types.Prediction
	if err := unmarshalJSON(body, &prediction); err != nil {
		return types.Prediction{}, fmt.Errorf("failed to parse response: %w", err)
	}

	return prediction, nil
}

// fetchStatus retrieves the service status snapshot.
func fetchStatus(ctx context.Context, client *HTTPClient, baseURL string) (*types.Status, error) {
	resp, err := client.Get(ctx, baseURL+"/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var status types.Status
	if err := unmarshalJSON(body, &status); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &status, nil
}
