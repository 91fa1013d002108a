package services

import (
	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"

	"github.com/lac-hong-legacy/devscope/middleware"
	"github.com/lac-hong-legacy/devscope/shared"
)

type AuthMiddleware struct {
	appContext.DefaultService

	identitySvc *IdentityService
}

const AUTH_MIDDLEWARE_SVC = "auth"

func NewAuthMiddleware(identitySvc *IdentityService) *AuthMiddleware {
	return &AuthMiddleware{identitySvc: identitySvc}
}

func (svc AuthMiddleware) Id() string {
	return AUTH_MIDDLEWARE_SVC
}

func (svc *AuthMiddleware) Configure(ctx *appContext.Context) error {
	svc.identitySvc = ctx.Service(IDENTITY_SVC).(*IdentityService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthMiddleware) Start() error {
	return nil
}

// OptionalAuth lets guests through. A caller that sends a bearer token must
// send a valid one; a bad token is never downgraded to a guest.
func (svc *AuthMiddleware) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(shared.ClientAddress, middleware.ClientAddress(c))

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Next()
		}
		return svc.authenticate(c, authHeader)
	}
}

func (svc *AuthMiddleware) RequiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(shared.ClientAddress, middleware.ClientAddress(c))
		return svc.authenticate(c, c.Get(fiber.HeaderAuthorization))
	}
}

func (svc *AuthMiddleware) authenticate(c *fiber.Ctx, authHeader string) error {
	token, err := svc.identitySvc.ExtractTokenFromHeader(authHeader)
	if err != nil {
		return shared.ResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
	}

	userID, err := svc.identitySvc.Resolve(c.UserContext(), token)
	if err != nil {
		return shared.ResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid JWT token")
	}

	c.Locals(shared.UserID, userID)
	return c.Next()
}
