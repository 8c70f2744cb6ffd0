package api

import (
	"strings"

	"github.com/tubearchive/tubearchive-server/internal/service"
)

// ClientHeaders carries the request headers recorded on sessions.
type ClientHeaders struct {
	XForwardedFor string `header:"X-Forwarded-For" doc:"Client address chain set by proxies"`
	XRealIP       string `header:"X-Real-IP" doc:"Client address set by proxies"`
	UserAgent     string `header:"User-Agent" doc:"Client user agent"`
}

// clientInfo extracts session metadata from the headers.
func (h ClientHeaders) clientInfo() service.ClientInfo {
	ip := strings.TrimSpace(h.XRealIP)
	if h.XForwardedFor != "" {
		first, _, _ := strings.Cut(h.XForwardedFor, ",")
		ip = strings.TrimSpace(first)
	}
	return service.ClientInfo{
		IPAddress: ip,
		UserAgent: h.UserAgent,
	}
}

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// CountResponse contains a record count.
type CountResponse struct {
	Count int `json:"count" doc:"Number of records"`
}

// CountOutput wraps the count response for Huma.
type CountOutput struct {
	Body CountResponse
}
