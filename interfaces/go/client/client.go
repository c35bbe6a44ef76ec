package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Client is a minimal Go client for the pdfsync command API. SessionID and
// UserID, when set, are sent in every request body; otherwise the server
// falls back to headers and then its defaults.
type Client struct {
	BaseURL   string
	SessionID string
	UserID    string
	HTTP      *http.Client
}

func New(baseURL string) *Client { return &Client{BaseURL: baseURL, HTTP: http.DefaultClient} }

type Ack struct {
	Success   bool   `json:"success"`
	Page      int    `json:"page"`
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
}

func (c *Client) ChangePage(page int) (Ack, error) {
	return c.post(fmt.Sprintf("%s/pdf/page/%d", c.BaseURL, page), map[string]any{
		"sessionId": c.SessionID,
		"userId":    c.UserID,
	})
}

func (c *Client) ZoomX(left, right float64) (Ack, error) {
	return c.post(c.BaseURL+"/pdf/zoom/x", map[string]any{
		"left": left, "right": right,
		"sessionId": c.SessionID,
		"userId":    c.UserID,
	})
}

func (c *Client) ZoomY(top, bottom float64) (Ack, error) {
	return c.post(c.BaseURL+"/pdf/zoom/y", map[string]any{
		"top": top, "bottom": bottom,
		"sessionId": c.SessionID,
		"userId":    c.UserID,
	})
}

func (c *Client) post(url string, body map[string]any) (Ack, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return Ack{}, err
	}
	resp, err := c.HTTP.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return Ack{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return Ack{}, fmt.Errorf("pdfsync: %s: %s", resp.Status, e.Error.Message)
	}
	var ack Ack
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return Ack{}, err
	}
	return ack, nil
}
