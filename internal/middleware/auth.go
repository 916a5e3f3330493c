package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sms-campaigns/backend/internal/auth"
	"github.com/sms-campaigns/backend/internal/config"
	"github.com/sms-campaigns/backend/internal/http/dto"
	"github.com/sms-campaigns/backend/internal/models"
	"github.com/sms-campaigns/backend/internal/rbac"
	"go.uber.org/zap"
)

const (
	CtxAccountID = "account_id"
	CtxEmail     = "email"
	CtxRole      = "role"
)

// AccountOpener creates the ledger account the first time a token is seen.
type AccountOpener interface {
	OpenAccount(ctx context.Context, id uuid.UUID, email string) (*models.Account, error)
}

func AuthMiddleware(cfg *config.Config, accounts AccountOpener, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "missing authorization header"})
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid authorization format"})
		}

		claims, err := auth.ParseJWT(cfg.JWTSecret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid or expired token"})
		}

		if accounts != nil {
			if _, err := accounts.OpenAccount(c.UserContext(), claims.AccountID, claims.Email); err != nil {
				log.Error("failed to open account", zap.String("account_id", claims.AccountID.String()), zap.Error(err))
				return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
			}
		}

		role := claims.Role
		if cfg.IsAdmin(claims.AccountID) {
			role = rbac.RoleAdmin
		}

		c.Locals(CtxAccountID, claims.AccountID)
		c.Locals(CtxEmail, claims.Email)
		c.Locals(CtxRole, role)

		return c.Next()
	}
}

func GetAccountID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(CtxAccountID).(uuid.UUID)
	return id
}

func GetEmail(c *fiber.Ctx) string {
	email, _ := c.Locals(CtxEmail).(string)
	return email
}

func GetRole(c *fiber.Ctx) string {
	role, _ := c.Locals(CtxRole).(string)
	if role == "" {
		return rbac.RoleAdvertiser
	}
	return role
}

// RequirePermission rejects callers whose role lacks perm.
func RequirePermission(perm string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !rbac.HasPermission(GetRole(c), perm) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "insufficient permissions"})
		}
		return c.Next()
	}
}
