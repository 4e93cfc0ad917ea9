package handlers

import (
	"log"

	"fiscal_service/internal/apperrors"
	"fiscal_service/internal/service"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fiscal_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"status", "method"}, // status: success/failure, method: local/directory
	)

	registrationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fiscal_registration_attempts_total",
			Help: "Total number of registration attempts",
		},
		[]string{"status"},
	)

	directorySyncGrants = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fiscal_directory_sync_grants_total",
			Help: "Grant rows touched by directory group sync",
		},
		[]string{"action"}, // created/updated/skipped
	)
)

type AuthHandler struct {
	accountService *service.AccountService
	sessionService *service.SessionService
}

func NewAuthHandler(accountService *service.AccountService, sessionService *service.SessionService) *AuthHandler {
	return &AuthHandler{
		accountService: accountService,
		sessionService: sessionService,
	}
}

func (h *AuthHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authGroup := app.Group("/public/fiscal/auth")

	authGroup.Post("/register", h.Register)
	authGroup.Post("/login", h.Login)
	authGroup.Post("/login/directory", h.DirectoryLogin)

	app.Post("/protected/fiscal/auth/logout", h.Logout)
}

func (h *AuthHandler) HealthCheck(c fiber.Ctx) error {
	return c.Status(fiber.StatusOK).SendString("OK")
}

func (h *AuthHandler) Register(c fiber.Ctx) error {
	var registerRequest struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind().Body(&registerRequest); err != nil {
		registrationAttempts.WithLabelValues("failure").Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if registerRequest.Username == "" || registerRequest.Email == "" || registerRequest.Password == "" {
		registrationAttempts.WithLabelValues("failure").Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Username, email, and password are required",
		})
	}

	account, err := h.accountService.Register(c.Context(), registerRequest.Username, registerRequest.Email, registerRequest.Password)
	if err != nil {
		registrationAttempts.WithLabelValues("failure").Inc()
		status := fiber.StatusBadRequest
		if apperrors.IsConflict(err) {
			status = fiber.StatusConflict
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	registrationAttempts.WithLabelValues("success").Inc()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Account Created Successfully",
		"data": fiber.Map{
			"username": account.Username,
		},
	})
}

func (h *AuthHandler) Login(c fiber.Ctx) error {
	var loginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.Bind().Body(&loginRequest); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if loginRequest.Username == "" || loginRequest.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Username and password are required",
		})
	}

	account, err := h.accountService.Login(c.Context(), loginRequest.Username, loginRequest.Password)
	if err != nil {
		log.Printf("Error login with username: %s : %s", loginRequest.Username, err)
		loginAttempts.WithLabelValues("failure", "local").Inc()
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	session, err := h.sessionService.NewSession(c.Context(), account, c.Get("User-Agent"), c.IP())
	if err != nil {
		loginAttempts.WithLabelValues("failure", "local").Inc()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create session",
		})
	}

	loginAttempts.WithLabelValues("success", "local").Inc()

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"data": fiber.Map{
			"token":    session.Token,
			"username": account.Username,
			"roles":    account.Roles,
			"isAdmin":  account.IsAdmin,
		},
	})
}

// DirectoryLogin is the internal endpoint the gateway calls after a
// successful LDAP/OAuth2 handshake. The body is the authenticator's
// output: the username and the raw directory group identifiers. Group
// sync runs inline; its failure never fails the login.
func (h *AuthHandler) DirectoryLogin(c fiber.Ctx) error {
	var loginRequest struct {
		Username         string   `json:"username"`
		GroupIdentifiers []string `json:"groupIdentifiers"`
	}

	if err := c.Bind().Body(&loginRequest); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if loginRequest.Username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Username is required",
		})
	}

	account, syncResult, err := h.accountService.DirectoryLogin(c.Context(), loginRequest.Username, loginRequest.GroupIdentifiers)
	if err != nil {
		log.Printf("Error directory login for username: %s : %s", loginRequest.Username, err)
		loginAttempts.WithLabelValues("failure", "directory").Inc()
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	directorySyncGrants.WithLabelValues("created").Add(float64(syncResult.GrantsCreated))
	directorySyncGrants.WithLabelValues("updated").Add(float64(syncResult.GrantsUpdated))
	directorySyncGrants.WithLabelValues("skipped").Add(float64(syncResult.Skipped))

	session, err := h.sessionService.NewSession(c.Context(), account, c.Get("User-Agent"), c.IP())
	if err != nil {
		loginAttempts.WithLabelValues("failure", "directory").Inc()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create session",
		})
	}

	loginAttempts.WithLabelValues("success", "directory").Inc()

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"data": fiber.Map{
			"token":    session.Token,
			"username": account.Username,
			"roles":    account.Roles,
			"isAdmin":  account.IsAdmin,
		},
	})
}

func (h *AuthHandler) Logout(c fiber.Ctx) error {
	username := c.Get("X-User-Name")
	if username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing user identity",
		})
	}

	if err := h.sessionService.InvalidateSession(c.Context(), username); err != nil {
		log.Printf("Error invalidating session for %s: %s", username, err)
	}

	return c.JSON(fiber.Map{
		"message": "Logged out",
	})
}
