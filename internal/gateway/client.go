// Package gateway is the HTTP client for the detection history backend and
// the user directory.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"detection-dashboard/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	listPath   = "/history/get"
	deletePath = "/history/delete/{id}"
	updatePath = "/history/update/{id}"
)

type Options struct {
	BaseURL      string
	ImageBaseURL string
	UsersURL     string
	Institution  string
	PhotoBaseURL string
	Timeout      time.Duration
	Retries      int
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.StatusCode, e.Body)
}

type recordsResponse struct {
	Data  []models.DetectionRecord `json:"data"`
	Page  int                      `json:"page"`
	Total int                      `json:"total"`
}

type usersResponse struct {
	Data []models.UserProfile `json:"data"`
}

type Client struct {
	httpClient *resty.Client
	opts       Options
	logger     *zap.Logger
}

func NewClient(opts Options, logger *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: client,
		opts:       opts,
		logger:     logger,
	}
}

// ListRecords fetches one 1-based page of detection history.
func (c *Client) ListRecords(ctx context.Context, page int) (*models.RecordPage, error) {
	if page < 1 {
		page = 1
	}

	var body recordsResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("page", strconv.Itoa(page)).
		SetResult(&body).
		Get(listPath)
	if err := c.check("list records", resp, err); err != nil {
		return nil, err
	}

	items := body.Data
	if items == nil {
		items = []models.DetectionRecord{}
	}
	for i := range items {
		items[i].ImageURL = c.ImageURL(items[i].ImageRef)
	}

	c.logger.Debug("Fetched detection records",
		zap.Int("page", page),
		zap.Int("count", len(items)),
	)

	return &models.RecordPage{Items: items, Page: page, Total: body.Total}, nil
}

// ListAllRecords fetches pages 1..pageCount one after another and
// concatenates them. The first failing page aborts the fetch.
func (c *Client) ListAllRecords(ctx context.Context, pageCount int) ([]models.DetectionRecord, error) {
	if pageCount < 1 {
		pageCount = 1
	}

	all := []models.DetectionRecord{}
	for page := 1; page <= pageCount; page++ {
		result, err := c.ListRecords(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("page %d of %d: %w", page, pageCount, err)
		}
		all = append(all, result.Items...)
	}
	return all, nil
}

func (c *Client) DeleteRecord(ctx context.Context, id string) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Delete(deletePath)
	return c.check("delete record", resp, err)
}

// UpdateRecord sends the full record with its changes applied.
func (c *Client) UpdateRecord(ctx context.Context, id string, record models.DetectionRecord) error {
	record.ImageURL = ""
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetHeader("Content-Type", "application/json").
		SetBody(record).
		Put(updatePath)
	return c.check("update record", resp, err)
}

// ListUsers fetches the active user profiles of the configured institution.
func (c *Client) ListUsers(ctx context.Context) ([]models.UserProfile, error) {
	var body usersResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"id-institution": c.opts.Institution,
			"isDeleted":      "false",
		}).
		SetResult(&body).
		Get(c.opts.UsersURL)
	if err := c.check("list users", resp, err); err != nil {
		return nil, err
	}

	users := body.Data
	if users == nil {
		users = []models.UserProfile{}
	}
	for i := range users {
		users[i].Photo = c.PhotoURL(users[i].Photo)
	}
	return users, nil
}

// ImageURL joins the image base URL and a record's relative image path.
func (c *Client) ImageURL(ref string) string {
	if ref == "" {
		return ""
	}
	return c.opts.ImageBaseURL + ref
}

// PhotoURL keeps absolute photo URLs and prefixes relative ones.
func (c *Client) PhotoURL(photo string) string {
	if photo == "" || strings.HasPrefix(photo, "http") {
		return photo
	}
	return c.opts.PhotoBaseURL + photo
}

func (c *Client) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		c.logger.Error("Backend call failed", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() || resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		c.logger.Error("Backend returned error",
			zap.String("op", op),
			zap.Int("status_code", resp.StatusCode()),
		)
		return &StatusError{Op: op, StatusCode: resp.StatusCode(), Body: truncate(resp.String(), 200)}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
