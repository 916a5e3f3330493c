package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sms-campaigns/backend/internal/auth"
	"github.com/sms-campaigns/backend/internal/clock"
	"github.com/sms-campaigns/backend/internal/config"
	"github.com/sms-campaigns/backend/internal/events"
	"github.com/sms-campaigns/backend/internal/http/handlers"
	"github.com/sms-campaigns/backend/internal/metrics"
	"github.com/sms-campaigns/backend/internal/repositories/memstore"
	"github.com/sms-campaigns/backend/internal/scheduler"
	"github.com/sms-campaigns/backend/internal/services"
	"github.com/sms-campaigns/backend/internal/webhook"
	"go.uber.org/zap"
)

const webhookSecret = "whsec_router"

type apiEnv struct {
	app     *fiber.App
	cfg     *config.Config
	balance *services.BalanceService
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	log := zap.NewNop()
	cfg := &config.Config{
		JWTSecret:            "test-secret",
		PaymentWebhookSecret: webhookSecret,
		CostSMS:              50,
		CostMMS:              120,
		CostRCS:              80,
		CompletionDelay:      time.Minute,
	}
	store := memstore.New()
	bus := events.NewMemoryBus()
	m := metrics.New()
	clk := clock.RealClock{}

	balance := services.NewBalanceService(store, bus, m, log)
	campaigns := services.NewCampaignService(store, balance, services.AllowAllTemplates{}, nil, scheduler.NewMemory(), bus, m, clk, cfg, log)
	intake := webhook.NewIntake(webhook.NewVerifier(cfg.PaymentWebhookSecret, time.Minute, clk), webhook.NewMemorySeen(time.Hour, clk), balance, bus, m, log)

	app := fiber.New()
	SetupRouter(app, cfg, log, nil, m, balance, Handlers{
		Account:  handlers.NewAccountHandler(balance, log),
		Campaign: handlers.NewCampaignHandler(campaigns, log),
		Webhook:  handlers.NewWebhookHandler(intake, log),
	})
	return &apiEnv{app: app, cfg: cfg, balance: balance}
}

func (e *apiEnv) token(t *testing.T, id uuid.UUID, role string) string {
	t.Helper()
	tok, err := auth.GenerateJWT(e.cfg.JWTSecret, id, id.String()[:8]+"@example.com", role, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.send(t, req)
}

func (e *apiEnv) send(t *testing.T, req *nethttp.Request) (int, map[string]any) {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (e *apiEnv) payWebhook(t *testing.T, account uuid.UUID, session string, amount int64, secret string) (int, map[string]any) {
	t.Helper()
	body := []byte(fmt.Sprintf(
		`{"id":"evt_%s","type":"checkout.session.completed","data":{"object":{"id":"%s","payment_status":"paid","amount_total":%d,"metadata":{"purpose":"topup","account_id":"%s"}}}}`,
		session, session, amount, account,
	))
	req := httptest.NewRequest(fiber.MethodPost, "/webhooks/payments", bytes.NewReader(body))
	req.Header.Set(webhook.SignatureHeader, webhook.Sign(secret, time.Now(), body))
	return e.send(t, req)
}

func data(out map[string]any) map[string]any {
	d, _ := out["data"].(map[string]any)
	return d
}

func TestAuthRequired(t *testing.T) {
	env := newAPIEnv(t)
	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"not bearer", "Basic abc"},
		{"bad token", "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/api/v1/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if status, _ := env.send(t, req); status != fiber.StatusUnauthorized {
				t.Errorf("status = %d, want 401", status)
			}
		})
	}
}

func TestMeOpensAccount(t *testing.T) {
	env := newAPIEnv(t)
	id := uuid.New()

	status, out := env.do(t, fiber.MethodGet, "/api/v1/me", env.token(t, id, ""), nil)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, body %v", status, out)
	}
	if d := data(out); d["account_id"] != id.String() || d["role"] != auth.RoleAdvertiser || d["display"] != "0.00" {
		t.Errorf("unexpected body %v", out)
	}
}

func TestPaymentWebhook(t *testing.T) {
	env := newAPIEnv(t)
	id := uuid.New()
	tok := env.token(t, id, "")
	env.do(t, fiber.MethodGet, "/api/v1/me", tok, nil)

	status, out := env.payWebhook(t, id, "cs_1", 10000, webhookSecret)
	if status != fiber.StatusOK || out["outcome"] != "credited" {
		t.Fatalf("first delivery: %d %v", status, out)
	}
	status, out = env.payWebhook(t, id, "cs_1", 10000, webhookSecret)
	if status != fiber.StatusOK || out["outcome"] != "duplicate" {
		t.Fatalf("replay: %d %v", status, out)
	}
	if status, _ := env.payWebhook(t, id, "cs_2", 10000, "forged"); status != fiber.StatusBadRequest {
		t.Errorf("forged signature status = %d, want 400", status)
	}
	if status, _ := env.payWebhook(t, uuid.New(), "cs_3", 10000, webhookSecret); status != fiber.StatusNotFound {
		t.Errorf("unknown account status = %d, want 404", status)
	}

	status, out = env.do(t, fiber.MethodGet, "/api/v1/me/balance", tok, nil)
	if status != fiber.StatusOK || data(out)["balance"] != float64(10000) || data(out)["display"] != "100.00" {
		t.Errorf("balance: %d %v", status, out)
	}
}

func TestCampaignLifecycleOverHTTP(t *testing.T) {
	env := newAPIEnv(t)
	owner, reviewer := uuid.New(), uuid.New()
	ownerTok := env.token(t, owner, "")
	reviewerTok := env.token(t, reviewer, auth.RoleReviewer)

	status, out := env.do(t, fiber.MethodPost, "/api/v1/campaigns", ownerTok, map[string]any{
		"template_id":  uuid.NewString(),
		"title":        "launch",
		"message_type": "sms",
		"target_count": 100,
	})
	if status != fiber.StatusCreated {
		t.Fatalf("create: %d %v", status, out)
	}
	id := data(out)["id"].(string)
	if data(out)["status"] != "draft" || data(out)["budget"] != float64(5000) {
		t.Fatalf("unexpected campaign %v", out)
	}

	if status, _ := env.do(t, fiber.MethodPost, "/api/v1/campaigns/"+id+"/submit", ownerTok, nil); status != fiber.StatusOK {
		t.Fatalf("submit: %d", status)
	}
	if status, _ := env.do(t, fiber.MethodPost, "/api/v1/review/campaigns/"+id+"/approve", ownerTok, nil); status != fiber.StatusForbidden {
		t.Errorf("advertiser approve status = %d, want 403", status)
	}

	status, out = env.do(t, fiber.MethodGet, "/api/v1/review/campaigns", reviewerTok, nil)
	if list, _ := out["data"].([]any); status != fiber.StatusOK || len(list) != 1 {
		t.Errorf("review queue: %d %v", status, out)
	}
	if status, _ := env.do(t, fiber.MethodPost, "/api/v1/review/campaigns/"+id+"/approve", reviewerTok, nil); status != fiber.StatusOK {
		t.Fatalf("approve: %d", status)
	}

	if status, _ := env.do(t, fiber.MethodPost, "/api/v1/campaigns/"+id+"/start", ownerTok, nil); status != fiber.StatusPaymentRequired {
		t.Errorf("start without funds status = %d, want 402", status)
	}

	env.payWebhook(t, owner, "cs_fund", 6000, webhookSecret)
	status, out = env.do(t, fiber.MethodPost, "/api/v1/campaigns/"+id+"/start", ownerTok, nil)
	if status != fiber.StatusOK || data(out)["status"] != "running" {
		t.Fatalf("start: %d %v", status, out)
	}

	if status, _ := env.do(t, fiber.MethodDelete, "/api/v1/campaigns/"+id, ownerTok, nil); status != fiber.StatusConflict {
		t.Errorf("delete running status = %d, want 409", status)
	}
	if status, _ := env.do(t, fiber.MethodGet, "/api/v1/campaigns/"+id+"/report", ownerTok, nil); status != fiber.StatusOK {
		t.Errorf("report status = %d", status)
	}
	if status, _ := env.do(t, fiber.MethodGet, "/api/v1/campaigns/"+id, env.token(t, uuid.New(), ""), nil); status != fiber.StatusNotFound {
		t.Errorf("foreign account read status = %d, want 404", status)
	}

	status, out = env.do(t, fiber.MethodGet, "/api/v1/me/transactions", ownerTok, nil)
	if list, _ := out["data"].([]any); status != fiber.StatusOK || len(list) != 2 {
		t.Errorf("transactions: %d %v", status, out)
	}
}

func TestUpdateCampaignOverHTTP(t *testing.T) {
	env := newAPIEnv(t)
	tok := env.token(t, uuid.New(), "")
	template := uuid.NewString()

	status, out := env.do(t, fiber.MethodPost, "/api/v1/campaigns", tok, map[string]any{
		"template_id": template, "title": "launch", "message_type": "sms", "target_count": 10,
	})
	if status != fiber.StatusCreated {
		t.Fatalf("create: %d %v", status, out)
	}
	id := data(out)["id"].(string)

	edit := map[string]any{"template_id": template, "title": "relaunch", "message_type": "mms", "target_count": 300}
	if status, out := env.do(t, fiber.MethodPut, "/api/v1/campaigns/"+id, tok, edit); status != fiber.StatusOK {
		t.Fatalf("update: %d %v", status, out)
	}

	status, out = env.do(t, fiber.MethodGet, "/api/v1/campaigns/"+id, tok, nil)
	got := data(out)
	if status != fiber.StatusOK || got["title"] != "relaunch" || got["message_type"] != "mms" ||
		got["target_count"] != float64(300) || got["budget"] != float64(36000) {
		t.Errorf("stored campaign after update: %d %v", status, out)
	}

	if status, _ := env.do(t, fiber.MethodPost, "/api/v1/campaigns/"+id+"/submit", tok, nil); status != fiber.StatusOK {
		t.Fatalf("submit: %d", status)
	}
	if status, _ := env.do(t, fiber.MethodPut, "/api/v1/campaigns/"+id, tok, edit); status != fiber.StatusConflict {
		t.Errorf("update in review status = %d, want 409", status)
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	env := newAPIEnv(t)
	tok := env.token(t, uuid.New(), "")

	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"bad template id", `{"template_id":"x","title":"t","message_type":"sms","target_count":1}`},
		{"unknown message type", `{"template_id":"` + uuid.NewString() + `","title":"t","message_type":"fax","target_count":1}`},
		{"no recipients", `{"template_id":"` + uuid.NewString() + `","title":"t","message_type":"sms","target_count":0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodPost, "/api/v1/campaigns", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+tok)
			if status, _ := env.send(t, req); status != fiber.StatusBadRequest {
				t.Errorf("status = %d, want 400", status)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newAPIEnv(t)
	resp, err := env.app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
