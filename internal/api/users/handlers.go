// Package users implements HTTP handlers for registration, login, profile
// management, and role administration.
package users

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/resource-share/resource-share/internal/apperrors"
	"github.com/resource-share/resource-share/internal/services"
)

// Handlers handles user account endpoints.
type Handlers struct {
	accounts *services.AccountsService
}

// NewHandlers creates a new user Handlers instance.
func NewHandlers(accounts *services.AccountsService) *Handlers {
	return &Handlers{accounts: accounts}
}

// @Summary      List users
// @Description  Get all registered users.
// @Tags         Users
// @Produce      json
// @Success      200  {array}   models.User
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/users [get]
// ListHandler lists all users.
// GET /api/users
func (h *Handlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := h.accounts.List(c.Request.Context())
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

// @Summary      Get user
// @Description  Get a user by ID.
// @Tags         Users
// @Produce      json
// @Param        id  path  int  true  "User ID"
// @Success      200  {object}  models.User
// @Failure      404  {object}  map[string]interface{}  "User not found"
// @Router       /api/users/{id} [get]
// GetHandler retrieves a specific user by ID.
// GET /api/users/:id
func (h *Handlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			apperrors.Respond(c, apperrors.Validation("users", "invalid user id"))
			return
		}

		user, err := h.accounts.Get(c.Request.Context(), id)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

type registerRequest struct {
	FullName         string  `json:"fullName"`
	Email            string  `json:"email"`
	Username         string  `json:"username"`
	Password         string  `json:"password"`
	ProfileImageLink *string `json:"profileImageLink"`
}

// @Summary      Register
// @Description  Create a new account. Email and username must be unique.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        body  body  registerRequest  true  "Registration fields"
// @Success      201  {object}  models.User
// @Failure      400  {object}  map[string]interface{}  "Invalid input"
// @Failure      409  {object}  map[string]interface{}  "Email or username taken"
// @Router       /api/users/new [post]
// RegisterHandler creates a new user account.
// POST /api/users/new
func (h *Handlers) RegisterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.Respond(c, apperrors.Validation("users", "invalid request body"))
			return
		}

		user, err := h.accounts.Register(c.Request.Context(), services.RegisterInput{
			FullName:         req.FullName,
			Email:            req.Email,
			Username:         req.Username,
			Password:         req.Password,
			ProfileImageLink: req.ProfileImageLink,
		})
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// @Summary      Login
// @Description  Verify credentials and issue a session token carrying the user's effective role.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        body  body  loginRequest  true  "Credentials"
// @Success      200  {object}  map[string]interface{}  "message, token, role, user"
// @Failure      401  {object}  map[string]interface{}  "Invalid credentials"
// @Router       /api/users/login [post]
// LoginHandler authenticates a user and returns a session token.
// POST /api/users/login
func (h *Handlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.Respond(c, apperrors.Validation("auth", "invalid request body"))
			return
		}

		session, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Login successful",
			"token":   session.Token,
			"role":    session.Role,
			"user":    session.User.Profile(),
		})
	}
}

type updateProfileRequest struct {
	FullName         string  `json:"fullName"`
	ProfileImageLink *string `json:"profileImageLink"`
}

// UpdateHandler updates a user's mutable profile fields. Only the display
// name and image link can change; email and username are immutable.
// PUT /api/users/update/:id
func (h *Handlers) UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			apperrors.Respond(c, apperrors.Validation("users", "invalid user id"))
			return
		}

		var req updateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.Respond(c, apperrors.Validation("users", "invalid request body"))
			return
		}

		user, err := h.accounts.UpdateProfile(c.Request.Context(), id, req.FullName, req.ProfileImageLink)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

type forgotRequest struct {
	Email string `json:"email"`
}

// ForgotHandler checks whether an account exists for the given email. Returns
// 200 when it does and 404 when it does not; no reset token is issued here.
// POST /api/users/forgot
func (h *Handlers) ForgotHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req forgotRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.Respond(c, apperrors.Validation("users", "invalid request body"))
			return
		}

		exists, err := h.accounts.ExistsByEmail(c.Request.Context(), req.Email)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		if !exists {
			c.JSON(http.StatusNotFound, gin.H{"error": "no account for that email"})
			return
		}
		c.Status(http.StatusOK)
	}
}

// DeleteHandler removes an account. Guarded by self-or-admin middleware;
// accounts with approval audit activity are refused.
// DELETE /api/users/drop/:id
func (h *Handlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			apperrors.Respond(c, apperrors.Validation("users", "invalid user id"))
			return
		}

		if err := h.accounts.Delete(c.Request.Context(), id); err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

type assignRoleRequest struct {
	Role string `json:"role"`
}

// AssignRoleHandler grants a named role to a user. Admin only.
// POST /api/users/:id/roles
func (h *Handlers) AssignRoleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			apperrors.Respond(c, apperrors.Validation("users", "invalid user id"))
			return
		}

		var req assignRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Role == "" {
			apperrors.Respond(c, apperrors.Validation("roles", "role name is required"))
			return
		}

		assignment, err := h.accounts.AssignRole(c.Request.Context(), id, req.Role)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, assignment)
	}
}

// ListRolesHandler lists all defined roles. Admin only.
// GET /api/roles
func (h *Handlers) ListRolesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, err := h.accounts.ListRoles(c.Request.Context())
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, roles)
	}
}

type createRoleRequest struct {
	Name string `json:"name"`
}

// CreateRoleHandler defines a new role. Admin only.
// POST /api/roles
func (h *Handlers) CreateRoleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.Respond(c, apperrors.Validation("roles", "invalid request body"))
			return
		}

		role, err := h.accounts.CreateRole(c.Request.Context(), req.Name)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, role)
	}
}
