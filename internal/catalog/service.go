package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/oskaz/oskaz-api/pkg/erp"
	pkgerrors "github.com/oskaz/oskaz-api/pkg/errors"
)

const (
	doctype          = "Item"
	defaultPageSize  = 20
	maxPageSize      = 100
	websiteItemField = "show_in_website"
)

var listFields = []string{
	"name", "item_code", "item_name", "item_group", "standard_rate",
	"stock_qty", "min_order_qty", "image", "description",
	"weight_per_unit", "weight_uom",
}

type erpClient interface {
	GetList(ctx context.Context, doctype string, opts erp.ListOptions) ([]json.RawMessage, error)
	GetDoc(ctx context.Context, doctype, name string) (json.RawMessage, error)
}

// Item is the storefront view of an ERP item document.
type Item struct {
	ID            string          `json:"id"`
	ItemCode      string          `json:"itemCode"`
	Name          string          `json:"name"`
	ItemGroup     string          `json:"itemGroup"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock"`
	MinOrderQty   int             `json:"minOrderQty"`
	Image         *string         `json:"image,omitempty"`
	Description   string          `json:"description,omitempty"`
	WeightPerUnit *float64        `json:"weightPerUnit,omitempty"`
	WeightUOM     *string         `json:"weightUOM,omitempty"`
}

type erpItem struct {
	Name          string          `json:"name"`
	ItemCode      string          `json:"item_code"`
	ItemName      string          `json:"item_name"`
	ItemGroup     string          `json:"item_group"`
	StandardRate  decimal.Decimal `json:"standard_rate"`
	StockQty      float64         `json:"stock_qty"`
	MinOrderQty   float64         `json:"min_order_qty"`
	Image         *string         `json:"image"`
	Description   string          `json:"description"`
	WeightPerUnit *float64        `json:"weight_per_unit"`
	WeightUOM     *string         `json:"weight_uom"`
}

// ListFilter narrows the item listing.
type ListFilter struct {
	ItemGroup string
	Search    string
	Limit     int
	Offset    int
}

// Service reads the product catalog from the ERP.
type Service interface {
	List(ctx context.Context, filter ListFilter) ([]Item, error)
	GetByCode(ctx context.Context, itemCode string) (*Item, error)
}

type service struct {
	erp erpClient
}

// NewService builds the catalog service on top of the ERP client.
func NewService(client erpClient) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("erp client required")
	}
	return &service{erp: client}, nil
}

// List returns published items matching the filter, paginated.
func (s *service) List(ctx context.Context, filter ListFilter) ([]Item, error) {
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

	filters := [][3]any{{websiteItemField, "=", 1}}
	if group := strings.TrimSpace(filter.ItemGroup); group != "" {
		filters = append(filters, [3]any{"item_group", "=", group})
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		filters = append(filters, [3]any{"item_name", "like", "%" + search + "%"})
	}

	docs, err := s.erp.GetList(ctx, doctype, erp.ListOptions{
		Fields:          listFields,
		Filters:         filters,
		OrderBy:         "item_name asc",
		LimitStart:      offset,
		LimitPageLength: limit,
	})
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(docs))
	for _, doc := range docs {
		item, err := decodeItem(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// GetByCode fetches one item by its code.
func (s *service) GetByCode(ctx context.Context, itemCode string) (*Item, error) {
	itemCode = strings.TrimSpace(itemCode)
	if itemCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item code is required")
	}

	doc, err := s.erp.GetDoc(ctx, doctype, itemCode)
	if err != nil {
		return nil, err
	}
	item, err := decodeItem(doc)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func decodeItem(doc json.RawMessage) (Item, error) {
	var raw erpItem
	if err := json.Unmarshal(doc, &raw); err != nil {
		return Item{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode item document")
	}

	name := raw.ItemName
	if name == "" {
		name = raw.ItemCode
	}

	return Item{
		ID:            raw.Name,
		ItemCode:      raw.ItemCode,
		Name:          name,
		ItemGroup:     raw.ItemGroup,
		Price:         raw.StandardRate,
		Stock:         int(raw.StockQty),
		MinOrderQty:   int(raw.MinOrderQty),
		Image:         raw.Image,
		Description:   raw.Description,
		WeightPerUnit: raw.WeightPerUnit,
		WeightUOM:     raw.WeightUOM,
	}, nil
}
