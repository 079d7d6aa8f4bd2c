package auth

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
)

// RegisterAuthRoutes mounts the JSON auth API on the given router.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.
		Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")

	app.
		Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("auth.register")

	app.
		Get(controller.Routes.Confirm, controller.ConfirmAccount).
		SetName("auth.confirm")

	app.
		Post(controller.Routes.RecoverPassword, controller.RecoverPasswordPost).
		SetName("auth.recover-password")

	app.
		Post(controller.Routes.ResetPassword, controller.ResetPasswordPost).
		SetName("auth.reset-password")

	app.
		Get(controller.Routes.Me, controller.Me).
		SetName("auth.me")
}

type AuthControllerRoutes struct {
	Login           string
	Register        string
	Confirm         string
	RecoverPassword string
	ResetPassword   string
	Me              string
}

type AuthController struct {
	Logger   Logger
	Repo     RepositoryManager
	Auther   Authenticator
	Notifier Notifier
	Config   Config
	Routes   *AuthControllerRoutes

	register  *RegisterUserHandler
	confirm   *ConfirmAccountHandler
	resetInit *InitializePasswordResetHandler
	resetDone *FinalizePasswordResetHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerNotifier(notifier Notifier) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Notifier = notifier
		return c
	}
}

func WithControllerConfig(config Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = config
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Login:           "/api/v1/auth/login",
			Register:        "/api/v1/registration",
			Confirm:         "/confirm",
			RecoverPassword: "/auth/recover-password",
			ResetPassword:   "/auth/reset-password",
			Me:              "/api/v1/users/me",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Config == nil {
		c.Config = &SimpleConfig{}
	}

	if c.Notifier == nil {
		c.Notifier = NewLogNotifier(c.Logger)
	}

	c.register = NewRegisterUserHandler(c.Repo, c.Notifier, c.Config).WithLogger(c.Logger)
	c.confirm = NewConfirmAccountHandler(c.Repo).WithLogger(c.Logger)
	c.resetInit = NewInitializePasswordResetHandler(c.Repo, c.Notifier, c.Config).WithLogger(c.Logger)
	c.resetDone = NewFinalizePasswordResetHandler(c.Repo).WithLogger(c.Logger)

	return c
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.renderError(ctx, wrapBindError(err))
	}

	if err := payload.Validate(); err != nil {
		return a.renderValidationError(ctx, err)
	}

	token, err := a.Auther.Login(ctx.Context(), payload.Identifier, payload.Password)
	if err != nil {
		a.Logger.Error("login error", "error", err)
		return a.renderError(ctx, err)
	}

	session, err := a.Auther.SessionFromToken(token)
	if err != nil {
		return a.renderError(ctx, err)
	}

	identity, err := a.Auther.IdentityFromSession(ctx.Context(), session)
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"token": token,
		"user": map[string]any{
			"id":       identity.ID(),
			"username": identity.Username(),
			"email":    identity.Email(),
			"role":     identity.Role(),
		},
	})
}

// RegistrationCreatePayload is the signup payload
type RegistrationCreatePayload struct {
	FirstName       string `form:"first_name" json:"first_name"`
	LastName        string `form:"last_name" json:"last_name"`
	Username        string `form:"username" json:"username"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload", "error", err)
		return a.renderError(ctx, wrapBindError(err))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload", "error", err)
		return a.renderValidationError(ctx, err)
	}

	req := RegisterUserMessage{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Username:  payload.Username,
		Email:     payload.Email,
		Password:  payload.Password,
	}

	if err := a.register.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register user error", "error", err)
		return a.renderError(ctx, err)
	}

	return ctx.JSON(fiber.StatusCreated, map[string]any{
		"message": "registration accepted, check your email to confirm the account",
	})
}

func (a *AuthController) ConfirmAccount(ctx router.Context) error {
	token := ctx.Query("token", "")
	if token == "" {
		return a.renderError(ctx, ErrTokenNotFound)
	}

	req := ConfirmAccountMessage{Token: token}

	if err := a.confirm.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("account confirmation error", "error", err)
		return a.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "account confirmed",
	})
}

// RecoverPasswordPayload starts the password reset flow
type RecoverPasswordPayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r RecoverPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
	)
}

func (a *AuthController) RecoverPasswordPost(ctx router.Context) error {
	payload := new(RecoverPasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.renderError(ctx, wrapBindError(err))
	}

	if err := payload.Validate(); err != nil {
		return a.renderValidationError(ctx, err)
	}

	req := InitializePasswordResetMessage{Email: payload.Email}

	if err := a.resetInit.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("recover password error", "error", err)
		return a.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "password reset instructions sent",
	})
}

// ResetPasswordPayload completes the password reset flow
type ResetPasswordPayload struct {
	Token           string `form:"token" json:"token"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r ResetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) ResetPasswordPost(ctx router.Context) error {
	payload := new(ResetPasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.renderError(ctx, wrapBindError(err))
	}

	if err := payload.Validate(); err != nil {
		return a.renderValidationError(ctx, err)
	}

	req := FinalizePasswordResetMessage{
		Token:    payload.Token,
		Password: payload.Password,
	}

	if err := a.resetDone.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("reset password error", "error", err)
		return a.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "password updated",
	})
}

// Me returns the authenticated principal. It expects the auth middleware to
// have populated the request context with verified claims.
func (a *AuthController) Me(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.Config.GetContextKey())
	if !ok {
		return a.renderError(ctx, ErrUnauthorized)
	}

	identity, err := a.Auther.IdentityFromSession(ctx.Context(), &SessionObject{UserID: claims.UserID()})
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"id":        identity.ID(),
		"username":  identity.Username(),
		"email":     identity.Email(),
		"role":      identity.Role(),
		"is_active": identity.IsActive(),
	})
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

func wrapBindError(err error) error {
	return ErrUnableToParseData
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field to message map suitable for a JSON response.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["error"] = err.Error()
	return out
}

func (a *AuthController) renderValidationError(ctx router.Context, err error) error {
	return ctx.JSON(router.StatusBadRequest, map[string]any{
		"error":      "Bad Request",
		"message":    "payload validation failed",
		"validation": FormatValidationErrorToMap(err),
	})
}

// renderError maps domain errors to HTTP responses. Ledger outcomes render as
// 400 with the text code so clients branch on the code, not the status.
func (a *AuthController) renderError(ctx router.Context, err error) error {
	status := fiber.StatusInternalServerError
	message := "internal server error"
	code := textCode(err)

	switch code {
	case TextCodeInvalidCredentials, TextCodeAccountInactive, TextCodeAccountLocked,
		TextCodeUnauthorized, TextCodeTokenMalformed:
		status = router.StatusUnauthorized
		message = err.Error()
	case TextCodeTokenNotFound, TextCodeTokenExpired, TextCodeTokenAlreadyUsed,
		TextCodeAlreadyActive, TextCodeUserNotFound:
		status = router.StatusBadRequest
		message = err.Error()
	case TextCodeEmailTaken:
		status = fiber.StatusConflict
		message = err.Error()
	case TextCodeTooManyAttempts:
		status = fiber.StatusTooManyRequests
		message = err.Error()
	case TextCodeUnavailable:
		status = fiber.StatusServiceUnavailable
		message = "service unavailable"
	default:
		if errors.Is(err, ErrUnableToParseData) {
			status = router.StatusBadRequest
			message = "unable to parse request payload"
		} else if errors.Is(err, ErrIdentityNotFound) {
			status = router.StatusUnauthorized
			message = "invalid credentials"
		}
	}

	if status == fiber.StatusInternalServerError {
		a.Logger.Error("unhandled controller error", "error", err)
	}

	body := map[string]any{
		"error":   statusText(status),
		"message": message,
	}
	if code != "" {
		body["code"] = code
	}

	return ctx.JSON(status, body)
}

func statusText(status int) string {
	switch status {
	case router.StatusBadRequest:
		return "Bad Request"
	case router.StatusUnauthorized:
		return "Unauthorized"
	case fiber.StatusConflict:
		return "Conflict"
	case fiber.StatusTooManyRequests:
		return "Too Many Requests"
	case fiber.StatusServiceUnavailable:
		return "Service Unavailable"
	default:
		return "Internal Server Error"
	}
}
