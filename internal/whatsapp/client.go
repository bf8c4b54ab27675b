// Package whatsapp sends text messages through an external WhatsApp gateway.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"leadmarket_backend/platform/config"
)

// Client talks to the WhatsApp HTTP gateway.
type Client struct {
	cfg  config.WhatsAppConfig
	http *http.Client
}

// NewClient creates a gateway client.
func NewClient(cfg config.WhatsAppConfig) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether a gateway is configured.
func (c *Client) Enabled() bool {
	return c.cfg.GetWhatsAppURL() != ""
}

type sendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// SendText delivers a text message to a phone number in E.164 format.
func (c *Client) SendText(ctx context.Context, phone, message string) error {
	if !c.Enabled() {
		return nil
	}

	body, err := json.Marshal(sendRequest{Phone: phone, Message: message})
	if err != nil {
		return fmt.Errorf("marshal whatsapp request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.GetWhatsAppURL()+"/send/message", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build whatsapp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key := c.cfg.GetWhatsAppKey(); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 300 {
		return fmt.Errorf("whatsapp gateway returned %d", resp.StatusCode)
	}
	return nil
}
