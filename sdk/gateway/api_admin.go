package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
)

// AdminLogin authenticates the administrator. The returned token belongs to
// the admin scope; storing it is the caller's decision.
func (c *Client) AdminLogin(ctx context.Context, username, password string) (*TokenResponse, error) {
	body, err := credentialsBody(username, password)
	if err != nil {
		return nil, err
	}
	data, err := c.post(ctx, "/admin/login", body)
	if err != nil {
		return nil, err
	}
	return parseToken(data)
}

// ChangeAdminPassword replaces the administrator password.
func (c *Client) ChangeAdminPassword(ctx context.Context, newPassword string) error {
	body, err := json.Marshal(map[string]string{"new_password": newPassword})
	if err != nil {
		return fmt.Errorf("gateway: marshal password change failed: %w", err)
	}
	_, err = c.post(ctx, "/admin/change-password", body)
	return err
}

// AdminStats fetches the dashboard statistics.
func (c *Client) AdminStats(ctx context.Context) (map[string]any, error) {
	return c.getJSON(ctx, "/admin/stats", nil)
}

// AdminUsers lists users, paginated.
func (c *Client) AdminUsers(ctx context.Context, page, limit int) (map[string]any, error) {
	return c.getJSON(ctx, "/admin/users", pageQuery(page, limit))
}

// AdminUser fetches one user's detail.
func (c *Client) AdminUser(ctx context.Context, userID int64) (map[string]any, error) {
	return c.getJSON(ctx, fmt.Sprintf("/admin/users/%d", userID), nil)
}

// UpdateAdminUser patches user fields, e.g. {"balance": 42}.
func (c *Client) UpdateAdminUser(ctx context.Context, userID int64, fields map[string]any) (map[string]any, error) {
	return c.patchJSON(ctx, fmt.Sprintf("/admin/users/%d", userID), fields)
}

// AdminOrders lists orders, paginated, optionally filtered by status.
func (c *Client) AdminOrders(ctx context.Context, page, limit int, status string) (map[string]any, error) {
	query := pageQuery(page, limit)
	if status != "" {
		query.Set("status", status)
	}
	return c.getJSON(ctx, "/admin/orders", query)
}

// UpdateAdminOrder patches order fields, e.g. {"status": "completed"}.
func (c *Client) UpdateAdminOrder(ctx context.Context, orderID int64, fields map[string]any) (map[string]any, error) {
	return c.patchJSON(ctx, fmt.Sprintf("/admin/orders/%d", orderID), fields)
}

// AdminModels lists all generation models including disabled ones.
func (c *Client) AdminModels(ctx context.Context) ([]map[string]any, error) {
	data, err := c.get(ctx, "/admin/models", nil)
	if err != nil {
		return nil, err
	}
	var models []map[string]any
	if err = json.Unmarshal(data, &models); err != nil {
		return nil, fmt.Errorf("gateway: parse admin models failed: %w", err)
	}
	return models, nil
}

// UpdateAdminModel replaces one model's editable fields.
func (c *Client) UpdateAdminModel(ctx context.Context, modelID int64, fields map[string]any) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("gateway: marshal model update failed: %w", err)
	}
	_, err = c.put(ctx, fmt.Sprintf("/admin/models/%d", modelID), body)
	return err
}

// AdminTickets lists tickets, paginated.
func (c *Client) AdminTickets(ctx context.Context, page, limit int) (map[string]any, error) {
	return c.getJSON(ctx, "/admin/tickets", pageQuery(page, limit))
}

// ReplyAdminTicket appends an administrator reply to a ticket.
func (c *Client) ReplyAdminTicket(ctx context.Context, ticketID int64, content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("gateway: marshal ticket reply failed: %w", err)
	}
	_, err = c.post(ctx, fmt.Sprintf("/admin/tickets/%d/reply", ticketID), body)
	return err
}

// CloseAdminTicket closes a ticket.
func (c *Client) CloseAdminTicket(ctx context.Context, ticketID int64) error {
	_, err := c.post(ctx, fmt.Sprintf("/admin/tickets/%d/close", ticketID), nil)
	return err
}

// AdminConfig fetches every configuration entry.
func (c *Client) AdminConfig(ctx context.Context) (map[string]any, error) {
	return c.getJSON(ctx, "/admin/config", nil)
}

// UpdateAdminConfig patches configuration entries.
func (c *Client) UpdateAdminConfig(ctx context.Context, fields map[string]any) (map[string]any, error) {
	return c.patchJSON(ctx, "/admin/config", fields)
}

// StartAutomation starts the fulfillment automation.
func (c *Client) StartAutomation(ctx context.Context) error {
	_, err := c.post(ctx, "/admin/automation/start", nil)
	return err
}

// StopAutomation stops the fulfillment automation.
func (c *Client) StopAutomation(ctx context.Context) error {
	_, err := c.post(ctx, "/admin/automation/stop", nil)
	return err
}

// AutomationStatus reports whether the automation is running and its
// current activity.
func (c *Client) AutomationStatus(ctx context.Context) (map[string]any, error) {
	return c.getJSON(ctx, "/admin/automation/status", nil)
}

// AutomationLogs returns the most recent automation log lines.
func (c *Client) AutomationLogs(ctx context.Context, limit int) ([]string, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	data, err := c.get(ctx, "/admin/automation/logs", query)
	if err != nil {
		return nil, err
	}
	lines := []string{}
	for _, entry := range gjson.GetBytes(data, "logs").Array() {
		lines = append(lines, entry.String())
	}
	return lines, nil
}

// BannedIPs lists the currently banned addresses.
func (c *Client) BannedIPs(ctx context.Context) (map[string]any, error) {
	return c.getJSON(ctx, "/admin/security/banned-ips", nil)
}

// UnbanIP lifts the ban on an address.
func (c *Client) UnbanIP(ctx context.Context, ip string) error {
	query := url.Values{}
	query.Set("ip", ip)
	_, err := c.delete(ctx, "/admin/security/unban", query)
	return err
}

// BanIP bans an address manually.
func (c *Client) BanIP(ctx context.Context, ip, reason string) error {
	body, err := json.Marshal(map[string]string{"ip": ip, "reason": reason})
	if err != nil {
		return fmt.Errorf("gateway: marshal ban request failed: %w", err)
	}
	_, err = c.post(ctx, "/admin/security/ban-ip", body)
	return err
}

// SecurityFailStats fetches aggregated login-failure statistics.
func (c *Client) SecurityFailStats(ctx context.Context) (map[string]any, error) {
	return c.getJSON(ctx, "/admin/security/fail-stats", nil)
}

func (c *Client) patchJSON(ctx context.Context, path string, fields map[string]any) (map[string]any, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("gateway: marshal patch body failed: %w", err)
	}
	data, err := c.patch(ctx, path, body)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	if err = json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("gateway: parse %s response failed: %w", path, err)
	}
	return result, nil
}

func pageQuery(page, limit int) url.Values {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	return query
}
