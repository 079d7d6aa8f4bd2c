package auth

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Password   string `json:"password"`
	UseHashid  bool
	OnResponse func(resp *RegisterUserResponse)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserResponse struct {
	User     *User
	Token    *OneTimeToken
	Reissued bool
}

// RegisterUserHandler signs up a new account. The account starts inactive
// and a confirmation token goes out; only a successful confirmation flips it
// active.
type RegisterUserHandler struct {
	repo     RepositoryManager
	notifier Notifier
	config   Config
	logger   Logger
}

func NewRegisterUserHandler(repo RepositoryManager, notifier Notifier, config Config) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:     repo,
		notifier: notifier,
		config:   config,
		logger:   defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	resp := &RegisterUserResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := h.repo.Users().GetByIdentifierTx(ctx, tx, event.Email)
		if err != nil && !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
		}

		if existing != nil {
			return h.handleExisting(ctx, tx, existing, event, resp)
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user := &User{}
		user.PasswordHash = hash
		user.Email = event.Email
		user.FirstName = event.FirstName
		user.LastName = event.LastName
		user.Username = getUsername(event.Username, event.Email)
		user.Role = UserRole(event.Role)
		user.Active = false
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		token, err := h.repo.Ledger().IssueTx(ctx, tx, user.ID, PurposeConfirmation, h.config.GetConfirmationTokenTTL())
		if err != nil {
			return err
		}

		resp.User = user
		resp.Token = token
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	h.notify(ctx, resp)

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

// handleExisting resolves a signup against an email that is already on file.
// An active account is a hard conflict. An inactive account gets a fresh
// confirmation token, but only when the presented password matches the
// stored hash, so a stranger cannot trigger mail for someone else's pending
// signup.
func (h *RegisterUserHandler) handleExisting(ctx context.Context, tx bun.Tx, existing *User, event RegisterUserMessage, resp *RegisterUserResponse) error {
	if existing.Active {
		return ErrEmailTaken
	}

	if err := ComparePasswordAndHash(event.Password, existing.PasswordHash); err != nil {
		return ErrEmailTaken
	}

	token, err := h.repo.Ledger().IssueTx(ctx, tx, existing.ID, PurposeConfirmation, h.config.GetConfirmationTokenTTL())
	if err != nil {
		return err
	}

	resp.User = existing
	resp.Token = token
	resp.Reissued = true
	return nil
}

func (h *RegisterUserHandler) notify(ctx context.Context, resp *RegisterUserResponse) {
	if h.notifier == nil || resp.User == nil || resp.Token == nil {
		return
	}

	link := ConfirmationLink(h.config.GetBaseURL(), resp.Token.Token)
	if err := h.notifier.Send(ctx, resp.User.Email, SubjectConfirmAccount, link); err != nil {
		h.logger.Error("failed to send confirmation notification", "error", err)
	}
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
