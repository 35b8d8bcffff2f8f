package middleware

import (
	"fmt"
	"strings"
	"time"

	"learnhub/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const principalKey = "principal"

// GenerateJWT issues a token carrying the principal's role and domain ids.
func GenerateJWT(secret string, p models.Principal, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"userId": p.UserID,
		"role":   p.Role,
		"iat":    time.Now().Unix(),          // issued at
		"exp":    time.Now().Add(ttl).Unix(), // expiry
	}
	if p.InstructorID != nil {
		claims["instructorId"] = *p.InstructorID
	}
	if p.StudentID != nil {
		claims["studentId"] = *p.StudentID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// JWTMiddleware checks the bearer token and stores the principal in Locals.
func JWTMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Missing or invalid Authorization header", nil)
		}

		// The token should be prefixed with "Bearer "
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid Authorization header format", nil)
		}
		tokenString := authHeader[len("Bearer "):]

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid or expired token", nil)
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || claims["userId"] == nil {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid token payload", nil)
		}

		// JWT numbers decode as float64
		p := models.Principal{
			UserID:       claimID(claims, "userId"),
			InstructorID: optionalClaimID(claims, "instructorId"),
			StudentID:    optionalClaimID(claims, "studentId"),
		}
		p.Role, _ = claims["role"].(string)

		c.Locals(principalKey, p)
		c.Locals("userId", p.UserID)
		return c.Next()
	}
}

func claimID(claims jwt.MapClaims, name string) uint {
	v, _ := claims[name].(float64)
	return uint(v)
}

func optionalClaimID(claims jwt.MapClaims, name string) *uint {
	if _, ok := claims[name].(float64); !ok {
		return nil
	}
	id := claimID(claims, name)
	return &id
}

// PrincipalFrom returns the principal stored by JWTMiddleware.
func PrincipalFrom(c *fiber.Ctx) (models.Principal, bool) {
	p, ok := c.Locals(principalKey).(models.Principal)
	return p, ok
}
