package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type ConfirmAccountMessage struct {
	Token      string `json:"token"`
	OnResponse func(resp *ConfirmAccountResponse)
}

func (e ConfirmAccountMessage) Type() string { return "user.confirm_account" }

type ConfirmAccountResponse struct {
	UserID string
}

// ConfirmAccountHandler consumes a confirmation token and activates the
// account it was issued for. The claim and the activation commit together;
// a token is never burned for an activation that did not happen.
type ConfirmAccountHandler struct {
	repo   RepositoryManager
	logger Logger
	now    func() time.Time
}

func NewConfirmAccountHandler(repo RepositoryManager) *ConfirmAccountHandler {
	return &ConfirmAccountHandler{
		repo:   repo,
		logger: defLogger{},
		now:    time.Now,
	}
}

func (h *ConfirmAccountHandler) WithLogger(logger Logger) *ConfirmAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ConfirmAccountHandler) WithNow(now func() time.Time) *ConfirmAccountHandler {
	if now != nil {
		h.now = now
	}
	return h
}

func (h *ConfirmAccountHandler) Execute(ctx context.Context, event ConfirmAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account confirmation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmAccountHandler) execute(ctx context.Context, event ConfirmAccountMessage) error {
	if event.Token == "" {
		return ErrTokenNotFound
	}

	resp := &ConfirmAccountResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		entry, err := h.repo.Ledger().ClaimTx(ctx, tx, event.Token, PurposeConfirmation, h.now())
		if err != nil {
			return err
		}

		if err := h.repo.Users().ActivateTx(ctx, tx, entry.UserID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to activate user account")
		}

		resp.UserID = entry.UserID.String()
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to confirm account")
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
