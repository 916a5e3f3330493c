package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sms-campaigns/backend/internal/http/dto"
	"github.com/sms-campaigns/backend/internal/middleware"
	"github.com/sms-campaigns/backend/internal/models"
	"github.com/sms-campaigns/backend/internal/rbac"
	"github.com/sms-campaigns/backend/internal/repositories"
	"github.com/sms-campaigns/backend/internal/services"
	"go.uber.org/zap"
)

type CampaignHandler struct {
	campaignService *services.CampaignService
	log             *zap.Logger
}

func NewCampaignHandler(campaignService *services.CampaignService, log *zap.Logger) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService, log: log}
}

func (h *CampaignHandler) CreateCampaign(c *fiber.Ctx) error {
	in, err := parseCampaignInput(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	campaign, err := h.campaignService.Create(c.UserContext(), middleware.GetAccountID(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

func (h *CampaignHandler) GetCampaign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}

	campaign, err := h.campaignService.Get(c.UserContext(), id, viewerScope(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

// GET /campaigns?status=&limit=&offset=
func (h *CampaignHandler) ListCampaigns(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	filter := repositories.CampaignFilter{Limit: limit, Offset: offset}
	if v := c.Query("status"); v != "" {
		status, err := models.ParseCampaignStatus(v)
		if err != nil {
			return badRequest(c, err.Error())
		}
		filter.Status = &status
	}

	campaigns, err := h.campaignService.List(c.UserContext(), middleware.GetAccountID(c), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: campaigns})
}

func (h *CampaignHandler) UpdateCampaign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}
	in, err := parseCampaignInput(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	campaign, err := h.campaignService.Update(c.UserContext(), id, middleware.GetAccountID(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

func (h *CampaignHandler) DeleteCampaign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}

	if err := h.campaignService.Delete(c.UserContext(), id, middleware.GetAccountID(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

type ownerTransition func(ctx context.Context, id, ownerID uuid.UUID) (*models.Campaign, error)

func (h *CampaignHandler) ownerAction(fn ownerTransition) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return badRequest(c, "invalid campaign id")
		}
		campaign, err := fn(c.UserContext(), id, middleware.GetAccountID(c))
		if err != nil {
			return respondError(c, h.log, err)
		}
		return c.JSON(dto.SuccessResponse{OK: true, Data: campaign})
	}
}

// POST /campaigns/:id/submit
func (h *CampaignHandler) SubmitCampaign(c *fiber.Ctx) error {
	return h.ownerAction(h.campaignService.Submit)(c)
}

// POST /campaigns/:id/resubmit
func (h *CampaignHandler) ResubmitCampaign(c *fiber.Ctx) error {
	return h.ownerAction(h.campaignService.Resubmit)(c)
}

// POST /campaigns/:id/prepare
func (h *CampaignHandler) PrepareCampaign(c *fiber.Ctx) error {
	return h.ownerAction(h.campaignService.Prepare)(c)
}

// POST /campaigns/:id/start
func (h *CampaignHandler) StartCampaign(c *fiber.Ctx) error {
	return h.ownerAction(h.campaignService.Start)(c)
}

// POST /campaigns/:id/stop
func (h *CampaignHandler) StopCampaign(c *fiber.Ctx) error {
	return h.ownerAction(h.campaignService.Stop)(c)
}

// POST /campaigns/:id/cancel
func (h *CampaignHandler) CancelCampaign(c *fiber.Ctx) error {
	return h.ownerAction(h.campaignService.Cancel)(c)
}

// POST /review/campaigns/:id/approve
func (h *CampaignHandler) ApproveCampaign(c *fiber.Ctx) error {
	return h.ownerAction(h.campaignService.Approve)(c)
}

// POST /review/campaigns/:id/reject
func (h *CampaignHandler) RejectCampaign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}
	var req dto.RejectCampaignRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
	}

	campaign, err := h.campaignService.Reject(c.UserContext(), id, middleware.GetAccountID(c), req.Reason)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

// POST /admin/campaigns/:id/complete forces the completion step early.
func (h *CampaignHandler) CompleteCampaign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}
	campaign, err := h.campaignService.Complete(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

// GET /review/campaigns
func (h *CampaignHandler) ReviewQueue(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	campaigns, err := h.campaignService.ListForReview(c.UserContext(), limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: campaigns})
}

// GET /campaigns/:id/report
func (h *CampaignHandler) GetReport(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}
	report, err := h.campaignService.Report(c.UserContext(), id, viewerScope(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: report})
}

// GET /campaigns/:id/events
func (h *CampaignHandler) GetEvents(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}
	limit, offset := pagination(c)
	events, err := h.campaignService.Events(c.UserContext(), id, viewerScope(c), limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: events})
}

// viewerScope returns nil for reviewers so they can read any campaign.
func viewerScope(c *fiber.Ctx) *uuid.UUID {
	if rbac.HasPermission(middleware.GetRole(c), rbac.PermReviewCampaign) {
		return nil
	}
	id := middleware.GetAccountID(c)
	return &id
}

type inputError string

func (e inputError) Error() string { return string(e) }

func parseCampaignInput(c *fiber.Ctx) (services.CampaignInput, error) {
	var req dto.CreateCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return services.CampaignInput{}, inputError("invalid request body")
	}
	templateID, err := uuid.Parse(req.TemplateID)
	if err != nil {
		return services.CampaignInput{}, inputError("template_id must be a uuid")
	}
	return services.CampaignInput{
		TemplateID:  templateID,
		Title:       req.Title,
		MessageType: req.MessageType,
		TargetCount: req.TargetCount,
		ScheduledAt: req.ScheduledAt,
	}, nil
}
