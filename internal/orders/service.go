package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/oskaz/oskaz-api/internal/customers"
	"github.com/oskaz/oskaz-api/pkg/erp"
	pkgerrors "github.com/oskaz/oskaz-api/pkg/errors"
)

const (
	doctype         = "Sales Order"
	defaultPageSize = 20
	maxPageSize     = 100
)

type erpClient interface {
	GetList(ctx context.Context, doctype string, opts erp.ListOptions) ([]json.RawMessage, error)
	GetDoc(ctx context.Context, doctype, name string) (json.RawMessage, error)
	CreateDoc(ctx context.Context, doctype string, doc any) (json.RawMessage, error)
	UpdateDoc(ctx context.Context, doctype, name string, doc any) (json.RawMessage, error)
	DeleteDoc(ctx context.Context, doctype, name string) error
}

type customerResolver interface {
	GetByEmail(ctx context.Context, email string) (*customers.Customer, error)
}

// Line is one ordered item.
type Line struct {
	ItemCode string          `json:"item_code" validate:"required"`
	Qty      int             `json:"qty" validate:"required,min=1"`
	Rate     decimal.Decimal `json:"rate"`
}

// Order is the storefront view of a sales order document.
type Order struct {
	ID           string          `json:"id"`
	Customer     string          `json:"customer"`
	Status       string          `json:"status"`
	Date         string          `json:"date,omitempty"`
	DeliveryDate string          `json:"deliveryDate,omitempty"`
	GrandTotal   decimal.Decimal `json:"grandTotal"`
	Currency     string          `json:"currency,omitempty"`
	Lines        []Line          `json:"items"`
}

type erpOrder struct {
	Name            string          `json:"name"`
	Customer        string          `json:"customer"`
	Status          string          `json:"status"`
	TransactionDate string          `json:"transaction_date"`
	DeliveryDate    string          `json:"delivery_date"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
	Currency        string          `json:"currency"`
	Items           []Line          `json:"items"`
}

// ListFilter narrows the order listing to one customer's orders.
type ListFilter struct {
	Email  string
	Limit  int
	Offset int
}

// CreateInput carries the fields accepted when placing an order.
type CreateInput struct {
	Email        string `json:"email" validate:"required,email"`
	DeliveryDate string `json:"deliveryDate,omitempty"`
	Lines        []Line `json:"items" validate:"required,min=1,dive"`
}

// UpdateInput carries the mutable order fields. Nil fields are left as-is.
type UpdateInput struct {
	DeliveryDate *string `json:"deliveryDate,omitempty"`
	Lines        []Line  `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

// Service proxies sales-order CRUD to the ERP.
type Service interface {
	List(ctx context.Context, filter ListFilter) ([]Order, error)
	Get(ctx context.Context, id string) (*Order, error)
	Create(ctx context.Context, input CreateInput) (*Order, error)
	Update(ctx context.Context, id string, input UpdateInput) (*Order, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	erp       erpClient
	customers customerResolver
}

// NewService builds the order service on top of the ERP client and the
// customer lookup.
func NewService(client erpClient, resolver customerResolver) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("erp client required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("customer resolver required")
	}
	return &service{erp: client, customers: resolver}, nil
}

// List returns the customer's orders, newest first. An unknown email yields
// an empty list rather than an error.
func (s *service) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	customer, err := s.customers.GetByEmail(ctx, filter.Email)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return []Order{}, nil
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	docs, err := s.erp.GetList(ctx, doctype, erp.ListOptions{
		Fields:          []string{"name", "customer", "status", "transaction_date", "delivery_date", "grand_total", "currency"},
		Filters:         [][3]any{{"customer", "=", customer.Name}},
		OrderBy:         "transaction_date desc",
		LimitStart:      offset,
		LimitPageLength: limit,
	})
	if err != nil {
		return nil, err
	}

	orders := make([]Order, 0, len(docs))
	for _, doc := range docs {
		order, err := decodeOrder(doc)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// Get fetches one order by id.
func (s *service) Get(ctx context.Context, id string) (*Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	doc, err := s.erp.GetDoc(ctx, doctype, id)
	if err != nil {
		return nil, err
	}
	order, err := decodeOrder(doc)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Create places a sales order for the customer behind the email. The
// customer must already exist.
func (s *service) Create(ctx context.Context, input CreateInput) (*Order, error) {
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one order line is required")
	}
	for _, line := range input.Lines {
		if strings.TrimSpace(line.ItemCode) == "" || line.Qty < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "each line needs an item code and positive quantity")
		}
	}

	customer, err := s.customers.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}

	doc := map[string]any{
		"customer": customer.Name,
		"items":    input.Lines,
	}
	if strings.TrimSpace(input.DeliveryDate) != "" {
		doc["delivery_date"] = input.DeliveryDate
	}

	created, err := s.erp.CreateDoc(ctx, doctype, doc)
	if err != nil {
		return nil, err
	}
	order, err := decodeOrder(created)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Update applies a partial update to the order.
func (s *service) Update(ctx context.Context, id string, input UpdateInput) (*Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	doc := map[string]any{}
	if input.DeliveryDate != nil {
		doc["delivery_date"] = *input.DeliveryDate
	}
	if input.Lines != nil {
		if len(input.Lines) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order lines cannot be emptied")
		}
		doc["items"] = input.Lines
	}
	if len(doc) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no updatable fields provided")
	}

	updated, err := s.erp.UpdateDoc(ctx, doctype, id, doc)
	if err != nil {
		return nil, err
	}
	order, err := decodeOrder(updated)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Delete removes the order.
func (s *service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return s.erp.DeleteDoc(ctx, doctype, id)
}

func decodeOrder(doc json.RawMessage) (Order, error) {
	var raw erpOrder
	if err := json.Unmarshal(doc, &raw); err != nil {
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode sales order document")
	}

	lines := raw.Items
	if lines == nil {
		lines = []Line{}
	}

	return Order{
		ID:           raw.Name,
		Customer:     raw.Customer,
		Status:       raw.Status,
		Date:         raw.TransactionDate,
		DeliveryDate: raw.DeliveryDate,
		GrandTotal:   raw.GrandTotal,
		Currency:     raw.Currency,
		Lines:        lines,
	}, nil
}
