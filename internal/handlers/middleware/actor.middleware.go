package middleware

import (
	"strings"

	txContext "washplan/internal/context"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// ActorHeader names the caller when no JWT secret is configured
	ActorHeader = "X-Actor"

	// ActorLocalKey is the Fiber locals key for the audit actor
	ActorLocalKey = "actor"
)

// ActorClaims is the token payload; the actor is the name claim, else the subject.
type ActorClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Actor resolves who is calling and stores it for audit entries. With a JWT secret
// configured a valid HS256 bearer token is required; otherwise the X-Actor header is
// trusted and missing actors fall back to the system actor.
func (m *Middleware) Actor() fiber.Handler {
	secret := []byte(m.Config.JWTSecret)

	return func(c *fiber.Ctx) error {
		log := logger.New("middleware").TraceFromContext(c.UserContext()).Function("Actor")

		actor := strings.TrimSpace(c.Get(ActorHeader))
		if len(secret) > 0 {
			token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
			if !ok {
				// websocket clients cannot set headers on the upgrade request
				token = c.Query("access_token")
				ok = token != ""
			}
			if !ok {
				log.Info("missing bearer token")
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Bearer token required",
				})
			}

			claimed, err := ParseActorToken(token, secret)
			if err != nil {
				log.Info("token validation failed", "error", err.Error())
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid token",
				})
			}
			actor = claimed
		}

		if actor == "" {
			actor = txContext.SystemActor
		}

		c.Locals(ActorLocalKey, actor)
		c.SetUserContext(txContext.WithActor(c.UserContext(), actor))

		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// ParseActorToken validates an HS256 token and returns the actor it names.
func ParseActorToken(token string, secret []byte) (string, error) {
	claims := &ActorClaims{}
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}

	if actor := strings.TrimSpace(claims.Name); actor != "" {
		return actor, nil
	}
	if actor := strings.TrimSpace(claims.Subject); actor != "" {
		return actor, nil
	}
	return "", jwt.ErrTokenInvalidClaims
}

// GetActor extracts the audit actor from Fiber context
func GetActor(c *fiber.Ctx) string {
	if actor, ok := c.Locals(ActorLocalKey).(string); ok && actor != "" {
		return actor
	}
	return txContext.SystemActor
}
