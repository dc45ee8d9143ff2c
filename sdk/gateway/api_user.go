package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
)

// Order is one video-generation order as listed by GET /orders.
type Order struct {
	ID        int64   `json:"id"`
	Prompt    string  `json:"prompt"`
	ModelName string  `json:"model_name,omitempty"`
	VideoURL  string  `json:"video_url,omitempty"`
	Cost      float64 `json:"cost"`
	Status    string  `json:"status,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
}

// Model is one generation model as listed by GET /models.
type Model struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name,omitempty"`
	Price       float64 `json:"price,omitempty"`
	Enabled     bool    `json:"enabled"`
}

// PaymentCreated is the response to POST /pay/create; PayURL is the page the
// user completes the payment on.
type PaymentCreated struct {
	PayURL     string  `json:"pay_url"`
	OutTradeNo string  `json:"out_trade_no"`
	Amount     float64 `json:"amount"`
	Bonus      float64 `json:"bonus"`
}

// OrderRequest carries the fields of the order creation form. The frame
// images are optional.
type OrderRequest struct {
	Prompt         string
	ModelName      string
	FirstFrame     []byte
	FirstFrameName string
	LastFrame      []byte
	LastFrameName  string
}

// Recharge credits the account balance directly.
func (c *Client) Recharge(ctx context.Context, amount float64) (map[string]any, error) {
	body, err := json.Marshal(map[string]float64{"amount": amount})
	if err != nil {
		return nil, fmt.Errorf("gateway: marshal recharge request failed: %w", err)
	}
	data, err := c.post(ctx, "/recharge", body)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	if err = json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("gateway: parse recharge response failed: %w", err)
	}
	return result, nil
}

// CreatePayment opens a payment order and returns the payment URL.
func (c *Client) CreatePayment(ctx context.Context, amount float64) (*PaymentCreated, error) {
	body, err := json.Marshal(map[string]float64{"amount": amount})
	if err != nil {
		return nil, fmt.Errorf("gateway: marshal payment request failed: %w", err)
	}
	data, err := c.post(ctx, "/pay/create", body)
	if err != nil {
		return nil, err
	}
	var created PaymentCreated
	if err = json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("gateway: parse payment response failed: %w", err)
	}
	return &created, nil
}

// PaymentStatus polls a payment order by its trade number.
func (c *Client) PaymentStatus(ctx context.Context, outTradeNo string) (map[string]any, error) {
	return c.getJSON(ctx, "/pay/status/"+url.PathEscape(outTradeNo), nil)
}

// ConfirmPayment relays the gateway-return parameters to the service for
// synchronous confirmation.
func (c *Client) ConfirmPayment(ctx context.Context, params url.Values) (map[string]any, error) {
	return c.getJSON(ctx, "/pay/confirm", params)
}

// CreateOrder submits a generation order as a multipart form: prompt and
// model name plus the optional first/last frame images.
func (c *Client) CreateOrder(ctx context.Context, order OrderRequest) (*Order, error) {
	if order.Prompt == "" {
		return nil, fmt.Errorf("gateway: order prompt is required")
	}
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("prompt", order.Prompt); err != nil {
		return nil, fmt.Errorf("gateway: write prompt field failed: %w", err)
	}
	if order.ModelName != "" {
		if err := form.WriteField("model_name", order.ModelName); err != nil {
			return nil, fmt.Errorf("gateway: write model_name field failed: %w", err)
		}
	}
	for _, frame := range []struct {
		field string
		name  string
		data  []byte
	}{
		{"first_frame", order.FirstFrameName, order.FirstFrame},
		{"last_frame", order.LastFrameName, order.LastFrame},
	} {
		if len(frame.data) == 0 {
			continue
		}
		name := frame.name
		if name == "" {
			name = frame.field + ".png"
		}
		part, err := form.CreateFormFile(frame.field, name)
		if err != nil {
			return nil, fmt.Errorf("gateway: create %s part failed: %w", frame.field, err)
		}
		if _, err = part.Write(frame.data); err != nil {
			return nil, fmt.Errorf("gateway: write %s part failed: %w", frame.field, err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("gateway: close form failed: %w", err)
	}
	data, _, err := c.do(ctx, http.MethodPost, "/orders/create", nil, &buf, form.FormDataContentType())
	if err != nil {
		return nil, err
	}
	var created Order
	if err = json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("gateway: parse order response failed: %w", err)
	}
	return &created, nil
}

// Orders lists the user's orders, newest first.
func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	data, err := c.get(ctx, "/orders", nil)
	if err != nil {
		return nil, err
	}
	var orders []Order
	if err = json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("gateway: parse orders failed: %w", err)
	}
	return orders, nil
}

// Models lists the generation models available to the user.
func (c *Client) Models(ctx context.Context) ([]Model, error) {
	data, err := c.get(ctx, "/models", nil)
	if err != nil {
		return nil, err
	}
	var models []Model
	if err = json.Unmarshal(data, &models); err != nil {
		return nil, fmt.Errorf("gateway: parse models failed: %w", err)
	}
	return models, nil
}

// CreateTicket opens a support ticket.
func (c *Client) CreateTicket(ctx context.Context, subject, content string) (map[string]any, error) {
	body, err := json.Marshal(map[string]string{"subject": subject, "content": content})
	if err != nil {
		return nil, fmt.Errorf("gateway: marshal ticket failed: %w", err)
	}
	data, err := c.post(ctx, "/tickets", body)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	if err = json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("gateway: parse ticket response failed: %w", err)
	}
	return result, nil
}

// Tickets lists the user's tickets.
func (c *Client) Tickets(ctx context.Context) ([]map[string]any, error) {
	data, err := c.get(ctx, "/tickets", nil)
	if err != nil {
		return nil, err
	}
	var tickets []map[string]any
	if err = json.Unmarshal(data, &tickets); err != nil {
		return nil, fmt.Errorf("gateway: parse tickets failed: %w", err)
	}
	return tickets, nil
}

// ReplyTicket appends a reply to one of the user's tickets.
func (c *Client) ReplyTicket(ctx context.Context, ticketID int64, content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("gateway: marshal ticket reply failed: %w", err)
	}
	_, err = c.post(ctx, fmt.Sprintf("/tickets/%d/reply", ticketID), body)
	return err
}

// CloseTicket closes one of the user's tickets.
func (c *Client) CloseTicket(ctx context.Context, ticketID int64) error {
	_, err := c.post(ctx, fmt.Sprintf("/tickets/%d/close", ticketID), nil)
	return err
}
