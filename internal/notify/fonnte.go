// Package notify delivers WhatsApp messages through the Fonnte HTTP gateway.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nicolaananda/barber-pos-sub000/internal/phone"
)

// Fonnte implements ports.Notifier. A zero Token makes Send a logged no-op.
type Fonnte struct {
	URL    string
	Token  string
	Client *http.Client
	Logger *slog.Logger
}

type fonntePayload struct {
	Target  string `json:"target"`
	Message string `json:"message"`
}

type fonnteResponse struct {
	Status bool   `json:"status"`
	Reason string `json:"reason"`
}

func NewFonnte(url, token string, logger *slog.Logger) *Fonnte {
	return &Fonnte{
		URL:    url,
		Token:  token,
		Client: &http.Client{Timeout: 10 * time.Second},
		Logger: logger,
	}
}

func (f *Fonnte) Enabled() bool { return f.Token != "" }

func (f *Fonnte) Send(ctx context.Context, to, message string) error {
	if !f.Enabled() {
		if f.Logger != nil {
			f.Logger.Debug("whatsapp disabled, message dropped", "phone", to)
		}
		return nil
	}

	body, err := json.Marshal(fonntePayload{Target: phone.WhatsAppTarget(to), Message: message})
	if err != nil {
		return fmt.Errorf("encode fonnte payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build fonnte request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", f.Token)

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send fonnte request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fonnte returned status %d", resp.StatusCode)
	}
	// Fonnte reports logical failures with a 200 and status=false.
	var fr fonnteResponse
	if err := json.Unmarshal(raw, &fr); err == nil && !fr.Status && fr.Reason != "" {
		return fmt.Errorf("fonnte rejected message: %s", fr.Reason)
	}
	return nil
}
