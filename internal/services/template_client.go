package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TemplateChecker reports whether a message template has passed review.
type TemplateChecker interface {
	IsApproved(ctx context.Context, accountID, templateID uuid.UUID) (bool, error)
}

// TemplateClient queries the template service's internal API.
type TemplateClient struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewTemplateClient(baseURL string, timeout time.Duration, log *zap.Logger) *TemplateClient {
	return &TemplateClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

func (c *TemplateClient) IsApproved(ctx context.Context, accountID, templateID uuid.UUID) (bool, error) {
	url := fmt.Sprintf("%s/internal/templates/%s?account_id=%s", c.baseURL, templateID, accountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrTemplateUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return false, fmt.Errorf("%w: template service returned %d: %s", ErrTemplateUnavailable, resp.StatusCode, string(body))
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, err
	}
	return result.Status == "approved", nil
}

// AllowAllTemplates approves every template. It is used for local runs when
// no template service is configured.
type AllowAllTemplates struct{}

func (AllowAllTemplates) IsApproved(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return true, nil
}

// NoTemplateService refuses every check with ErrTemplateUnavailable. It stands
// in for a missing template service wherever campaigns are stored durably.
type NoTemplateService struct{}

func (NoTemplateService) IsApproved(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, fmt.Errorf("%w: no template service configured", ErrTemplateUnavailable)
}

// NewTemplateChecker picks the checker for a deployment: the HTTP client when
// baseURL is set, otherwise allow-all or fail-closed depending on failClosed.
func NewTemplateChecker(baseURL string, failClosed bool, timeout time.Duration, log *zap.Logger) TemplateChecker {
	switch {
	case baseURL != "":
		return NewTemplateClient(baseURL, timeout, log)
	case failClosed:
		return NoTemplateService{}
	}
	return AllowAllTemplates{}
}
