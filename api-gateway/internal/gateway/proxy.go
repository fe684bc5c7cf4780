package gateway

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// hop-by-hop headers are not forwarded in either direction.
var hopHeaders = map[string]bool{
	"Connection":        true,
	"Keep-Alive":        true,
	"Proxy-Connection":  true,
	"Te":                true,
	"Trailer":           true,
	"Transfer-Encoding": true,
	"Upgrade":           true,
}

type Proxy struct {
	client *http.Client
	log    *zap.Logger
}

func NewProxy(client *http.Client, log *zap.Logger) *Proxy {
	return &Proxy{client: client, log: log}
}

// To forwards the request unchanged to serviceURL, keeping path and query.
func (p *Proxy) To(serviceURL string) gin.HandlerFunc {
	base := strings.TrimSuffix(serviceURL, "/")
	return func(c *gin.Context) {
		targetURL := base + c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			targetURL += "?" + c.Request.URL.RawQuery
		}

		var bodyBytes []byte
		if c.Request.Body != nil {
			var err error
			if bodyBytes, err = io.ReadAll(c.Request.Body); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Failed to read request body"})
				return
			}
		}

		req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, targetURL, bytes.NewReader(bodyBytes))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create request"})
			return
		}
		for key, values := range c.Request.Header {
			// X-User-ID is only ever set from a verified token below.
			if hopHeaders[key] || key == "X-User-Id" {
				continue
			}
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}
		if userID, exists := c.Get("userId"); exists {
			if id, ok := userID.(string); ok {
				req.Header.Set("X-User-ID", id)
			}
		}

		resp, err := p.client.Do(req)
		if err != nil {
			p.log.Warn("upstream request failed", zap.String("target", targetURL), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"message": "Service unavailable"})
			return
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"message": "Failed to read response"})
			return
		}
		for key, values := range resp.Header {
			if hopHeaders[key] || key == "Content-Length" {
				continue
			}
			for _, value := range values {
				c.Writer.Header().Add(key, value)
			}
		}
		c.Data(resp.StatusCode, resp.Header.Get("Content-Type"), respBody)
	}
}
