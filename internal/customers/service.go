package customers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/oskaz/oskaz-api/pkg/erp"
	pkgerrors "github.com/oskaz/oskaz-api/pkg/errors"
)

const doctype = "Customer"

type erpClient interface {
	GetList(ctx context.Context, doctype string, opts erp.ListOptions) ([]json.RawMessage, error)
	CreateDoc(ctx context.Context, doctype string, doc any) (json.RawMessage, error)
}

// Customer mirrors the ERP customer document fields this service exposes.
type Customer struct {
	Name         string `json:"name"`
	CustomerName string `json:"customer_name"`
	Email        string `json:"email_id"`
	CustomerType string `json:"customer_type,omitempty"`
}

// CreateInput carries the fields accepted when registering a customer.
type CreateInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" validate:"required,email"`
}

// Service looks up and registers ERP customers keyed by email.
type Service interface {
	GetByEmail(ctx context.Context, email string) (*Customer, error)
	CreateOrGet(ctx context.Context, input CreateInput) (*Customer, error)
}

type service struct {
	erp erpClient
}

// NewService builds the customer service on top of the ERP client.
func NewService(client erpClient) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("erp client required")
	}
	return &service{erp: client}, nil
}

// GetByEmail returns the customer for the email, or nil when none exists.
func (s *service) GetByEmail(ctx context.Context, email string) (*Customer, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	docs, err := s.erp.GetList(ctx, doctype, erp.ListOptions{
		Fields:          []string{"name", "customer_name", "email_id", "customer_type"},
		Filters:         [][3]any{{"email_id", "=", email}},
		LimitPageLength: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	var customer Customer
	if err := json.Unmarshal(docs[0], &customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode customer document")
	}
	return &customer, nil
}

// CreateOrGet registers the customer, returning the existing record when the
// email is already taken.
func (s *service) CreateOrGet(ctx context.Context, input CreateInput) (*Customer, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	existing, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	fullName := strings.TrimSpace(strings.TrimSpace(input.FirstName) + " " + strings.TrimSpace(input.LastName))
	if fullName == "" {
		fullName = email
	}

	doc, err := s.erp.CreateDoc(ctx, doctype, map[string]any{
		"customer_name": fullName,
		"email_id":      email,
		"customer_type": "Individual",
	})
	if err != nil {
		return nil, err
	}

	var customer Customer
	if err := json.Unmarshal(doc, &customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode created customer")
	}
	return &customer, nil
}
