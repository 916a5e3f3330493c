package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sms-campaigns/backend/internal/models"
	"go.uber.org/zap"
)

// MessagingGateway is the telecom API that actually delivers messages.
type MessagingGateway interface {
	// RegisterCampaign hands the campaign to the gateway and returns the
	// gateway's campaign id.
	RegisterCampaign(ctx context.Context, c *models.Campaign) (string, error)
	DeliveryStats(ctx context.Context, gatewayCampaignID string) (*DeliveryStats, error)
}

type DeliveryStats struct {
	Sent      int64 `json:"sent"`
	Delivered int64 `json:"delivered"`
	Failed    int64 `json:"failed"`
	Clicks    int64 `json:"clicks"`
	OptOuts   int64 `json:"opt_outs"`
}

// GatewayClient talks to the messaging gateway over HTTP.
type GatewayClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

func NewGatewayClient(baseURL, apiKey string, timeout time.Duration, log *zap.Logger) *GatewayClient {
	return &GatewayClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

type registerCampaignRequest struct {
	ExternalID  string     `json:"external_id"`
	TemplateID  string     `json:"template_id"`
	MessageType string     `json:"message_type"`
	TargetCount int64      `json:"target_count"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

func (c *GatewayClient) RegisterCampaign(ctx context.Context, campaign *models.Campaign) (string, error) {
	body, err := json.Marshal(registerCampaignRequest{
		ExternalID:  campaign.ID.String(),
		TemplateID:  campaign.TemplateID.String(),
		MessageType: campaign.MessageType,
		TargetCount: campaign.TargetCount,
		ScheduledAt: campaign.ScheduledAt,
	})
	if err != nil {
		return "", err
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/campaigns", body, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("%w: empty campaign id in response", ErrGatewayUnavailable)
	}

	c.log.Info("campaign registered with gateway",
		zap.String("campaign_id", campaign.ID.String()),
		zap.String("gateway_campaign_id", result.ID),
	)
	return result.ID, nil
}

func (c *GatewayClient) DeliveryStats(ctx context.Context, gatewayCampaignID string) (*DeliveryStats, error) {
	var stats DeliveryStats
	path := fmt.Sprintf("/v1/campaigns/%s/stats", url.PathEscape(gatewayCampaignID))
	if err := c.do(ctx, http.MethodGet, path, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *GatewayClient) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Idempotency-Key", uuid.NewSHA1(uuid.NameSpaceURL, append([]byte(method+path), body...)).String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: gateway returned %d: %s", ErrGatewayUnavailable, resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
