package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
)

// replayedResponse is the stored form of a completed request's response.
type replayedResponse struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
	Headers    http.Header     `json:"headers"`
}

// bodyCapture tees the response body so it can be stored for replay.
type bodyCapture struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored response when a mutating request
// repeats an Idempotency-Key. Booking creation retries after a network
// timeout must not reserve a second set of schedules.
func IdempotencyMiddleware(redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		// Scope by method and route so the same client key cannot replay a
		// response across different endpoints.
		storeKey := "idempotency:" + c.Request.Method + ":" + c.FullPath() + ":" + key

		stored, err := loadResponse(ctx, redisClient, storeKey)
		if err != nil && err != redis.Nil {
			// Redis unavailable: serve the request without replay protection.
			c.Next()
			return
		}

		if stored != nil {
			for k, vals := range stored.Headers {
				for _, v := range vals {
					c.Header(k, v)
				}
			}
			c.Data(stored.StatusCode, "application/json", stored.Body)
			c.Abort()
			return
		}

		w := &bodyCapture{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = w

		c.Next()

		// 5xx responses are not stored: the retry should reach the handler.
		if c.Writer.Status() >= 200 && c.Writer.Status() < 500 {
			_ = storeResponse(ctx, redisClient, storeKey, &replayedResponse{
				StatusCode: c.Writer.Status(),
				Body:       w.body.Bytes(),
				Headers:    replayHeaders(c),
			}, idempotencyTTL)
		}
	}
}

func loadResponse(ctx context.Context, client *redis.Client, key string) (*replayedResponse, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var stored replayedResponse
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}

	return &stored, nil
}

func storeResponse(ctx context.Context, client *redis.Client, key string, resp *replayedResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	return client.Set(ctx, key, data, ttl).Err()
}

func replayHeaders(c *gin.Context) http.Header {
	headers := make(http.Header)
	if ct := c.Writer.Header().Get("Content-Type"); ct != "" {
		headers.Set("Content-Type", ct)
	}
	return headers
}
