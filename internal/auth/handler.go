package auth

import (
	"errors"
	"strings"

	"inventario-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

const minPasswordLen = 8

func parseRegister(c *fiber.Ctx) (RegisterRequest, error) {
	var body RegisterRequest
	if err := c.BodyParser(&body); err != nil {
		return body, fiber.NewError(fiber.StatusBadRequest, "Cuerpo de solicitud inválido")
	}

	body.Email = strings.TrimSpace(strings.ToLower(body.Email))
	body.Name = strings.TrimSpace(body.Name)

	if body.Email == "" || body.Password == "" || body.Name == "" {
		return body, fiber.NewError(fiber.StatusBadRequest, "Nombre, email y contraseña son obligatorios")
	}
	if len(body.Password) < minPasswordLen {
		return body, fiber.NewError(fiber.StatusBadRequest, "La contraseña debe tener al menos 8 caracteres")
	}
	return body, nil
}

func createUser(c *fiber.Ctx, repo UserRepository, body RegisterRequest, role models.UserRole) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "No se pudo procesar la contraseña")
	}

	user := models.User{
		Name:         body.Name,
		Email:        body.Email,
		PasswordHash: string(hash),
		Role:         role,
	}

	if err := repo.Create(c.UserContext(), &user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return fiber.NewError(fiber.StatusConflict, "El email ya está registrado")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear el usuario")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
	})
}

// POST /api/auth/register-admin
// Solo mientras no exista ningún usuario: el primero queda como admin
func RegisterAdminHandler(repo UserRepository, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body, err := parseRegister(c)
		if err != nil {
			return err
		}

		count, err := repo.Count(c.UserContext())
		if err != nil {
			log.WithError(err).Error("conteo de usuarios falló")
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear el usuario")
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "Ya existe un administrador")
		}

		return createUser(c, repo, body, models.RoleAdmin)
	}
}

// POST /api/users (admin)
func CreateUserHandler(repo UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body, err := parseRegister(c)
		if err != nil {
			return err
		}

		role := body.Role
		if role == "" {
			role = models.RoleOperator
		}
		if role != models.RoleOperator && role != models.RoleAdmin {
			return fiber.NewError(fiber.StatusBadRequest, "Rol inválido")
		}

		return createUser(c, repo, body, role)
	}
}

func LoginHandler(secret string, repo UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de solicitud inválido")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		user, err := repo.FindByEmail(c.UserContext(), body.Email)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email o contraseña incorrectos")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email o contraseña incorrectos")
		}

		token, err := GenerateToken(secret, user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo generar el token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":    user.ID,
				"name":  user.Name,
				"email": user.Email,
				"role":  user.Role,
			},
		})
	}
}

func MeHandler(repo UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userIDVal := c.Locals(CtxUserIDKey)
		roleVal := c.Locals(CtxUserRoleKey)

		if userID, ok := userIDVal.(uint); ok {
			if user, err := repo.FindByID(c.UserContext(), userID); err == nil {
				return c.JSON(fiber.Map{
					"user_id": user.ID,
					"name":    user.Name,
					"email":   user.Email,
					"role":    user.Role,
				})
			}
		}

		// el usuario puede no existir ya (store en memoria reiniciado): se responde con el token
		return c.JSON(fiber.Map{
			"user_id": userIDVal,
			"name":    c.Locals(CtxUserNameKey),
			"role":    roleVal,
		})
	}
}
