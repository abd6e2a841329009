package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	svix "github.com/svix/svix-webhooks/go"

	"github.com/oskaz/oskaz-api/api/responses"
	clerkwebhook "github.com/oskaz/oskaz-api/internal/webhooks/clerk"
	pkgerrors "github.com/oskaz/oskaz-api/pkg/errors"
	"github.com/oskaz/oskaz-api/pkg/logger"
)

type identityWebhookService interface {
	HandleEvent(ctx context.Context, eventID string, event *clerkwebhook.Event) error
}

type identityWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// SignatureVerifier checks a delivery's signature headers against its payload.
type SignatureVerifier interface {
	Verify(payload []byte, headers http.Header) error
}

var _ SignatureVerifier = (*svix.Webhook)(nil)

// IdentityWebhook handles signed identity-provider events. Every delivery
// must carry the svix-id, svix-timestamp and svix-signature headers.
func IdentityWebhook(svc identityWebhookService, verifier SignatureVerifier, guard identityWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if verifier == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook verifier unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		eventID := r.Header.Get("svix-id")
		if eventID == "" || r.Header.Get("svix-timestamp") == "" || r.Header.Get("svix-signature") == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "webhook signature headers missing"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		if err := verifier.Verify(payload, r.Header); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "verify signature"))
			return
		}

		var event clerkwebhook.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode event"))
			return
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, eventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, map[string]string{"status": "ignored"})
			return
		}

		if err := svc.HandleEvent(ctx, eventID, &event); err != nil {
			_ = guard.Delete(ctx, eventID)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("identity event %s processed", eventID))
		}
		responses.WriteSuccess(w, map[string]string{"status": "processed"})
	}
}
