package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sms-campaigns/backend/internal/http/dto"
	"github.com/sms-campaigns/backend/internal/middleware"
	"github.com/sms-campaigns/backend/internal/services"
	"go.uber.org/zap"
)

type AccountHandler struct {
	balanceService *services.BalanceService
	log            *zap.Logger
}

func NewAccountHandler(balanceService *services.BalanceService, log *zap.Logger) *AccountHandler {
	return &AccountHandler{balanceService: balanceService, log: log}
}

// GET /me
func (h *AccountHandler) GetMe(c *fiber.Ctx) error {
	acct, err := h.balanceService.GetAccount(c.UserContext(), middleware.GetAccountID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.MeResponse{
		AccountID: acct.ID,
		Email:     acct.Email,
		Role:      middleware.GetRole(c),
		Balance:   acct.Balance,
		Display:   dto.FormatMinorUnits(acct.Balance),
		CreatedAt: acct.CreatedAt,
	}})
}

// GET /me/balance
func (h *AccountHandler) GetBalance(c *fiber.Ctx) error {
	accountID := middleware.GetAccountID(c)
	balance, err := h.balanceService.GetBalance(c.UserContext(), accountID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.NewBalanceResponse(accountID, balance)})
}

// GET /me/transactions?limit=&offset=
func (h *AccountHandler) GetHistory(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	entries, err := h.balanceService.History(c.UserContext(), middleware.GetAccountID(c), limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: entries})
}

func pagination(c *fiber.Ctx) (limit, offset int) {
	limit = 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
