package clerkwebhook

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/oskaz/oskaz-api/internal/customers"
	"github.com/oskaz/oskaz-api/pkg/db/models"
	pkgerrors "github.com/oskaz/oskaz-api/pkg/errors"
)

// EventTypeUserCreated is the identity-provider event this service acts on.
const EventTypeUserCreated = "user.created"

// Event is the identity-provider webhook envelope.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type userPayload struct {
	ID                    string `json:"id"`
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	PrimaryEmailAddressID string `json:"primary_email_address_id"`
	EmailAddresses        []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

type customerRegistrar interface {
	CreateOrGet(ctx context.Context, input customers.CreateInput) (*customers.Customer, error)
}

// ServiceParams collects the webhook service dependencies.
type ServiceParams struct {
	Customers customerRegistrar
	Audit     Repository
}

// Service reacts to identity-provider events. Unknown event types are
// acknowledged without side effects.
type Service struct {
	customers customerRegistrar
	audit     Repository
	now       func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Customers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customer service required")
	}
	if params.Audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "audit repository required")
	}
	return &Service{
		customers: params.Customers,
		audit:     params.Audit,
		now:       time.Now,
	}, nil
}

// HandleEvent dispatches one verified event by its id and type. Events
// already present in the audit table are acknowledged without reprocessing:
// the redis idempotency mark expires, the audit row does not.
func (s *Service) HandleEvent(ctx context.Context, eventID string, event *Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event data required")
	}

	recorded, err := s.audit.FindByEventID(ctx, eventID)
	if err != nil {
		return err
	}
	if recorded != nil {
		return nil
	}

	switch event.Type {
	case EventTypeUserCreated:
		return s.handleUserCreated(ctx, eventID, event.Data)
	default:
		return s.audit.Record(ctx, &models.WebhookEvent{
			EventID:    eventID,
			EventType:  event.Type,
			ReceivedAt: s.now().UTC(),
		})
	}
}

func (s *Service) handleUserCreated(ctx context.Context, eventID string, data json.RawMessage) error {
	var user userPayload
	if err := json.Unmarshal(data, &user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode user payload")
	}

	email := primaryEmail(user)
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user event carries no email")
	}

	if _, err := s.customers.CreateOrGet(ctx, customers.CreateInput{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     email,
	}); err != nil {
		return err
	}

	return s.audit.Record(ctx, &models.WebhookEvent{
		EventID:    eventID,
		EventType:  EventTypeUserCreated,
		Email:      email,
		ReceivedAt: s.now().UTC(),
	})
}

// primaryEmail prefers the address flagged primary, falling back to the
// first one present.
func primaryEmail(user userPayload) string {
	for _, addr := range user.EmailAddresses {
		if addr.ID == user.PrimaryEmailAddressID && addr.EmailAddress != "" {
			return strings.ToLower(strings.TrimSpace(addr.EmailAddress))
		}
	}
	for _, addr := range user.EmailAddresses {
		if addr.EmailAddress != "" {
			return strings.ToLower(strings.TrimSpace(addr.EmailAddress))
		}
	}
	return ""
}
