package dto

import (
	"strings"
	"time"

	"github.com/Additional-Code/serviceorders/internal/entity"
)

// OrderInput is the submitted form or JSON payload for creating and updating orders.
type OrderInput struct {
	Reference   string `form:"reference" json:"reference" validate:"required"`
	Company     string `form:"company" json:"company" validate:"required"`
	Description string `form:"description" json:"description" validate:"required"`
	Status      string `form:"status" json:"status" validate:"orderstatus"`
}

// Trimmed returns a copy with surrounding whitespace removed from the text fields.
// Status is compared verbatim and left untouched.
func (in OrderInput) Trimmed() OrderInput {
	return OrderInput{
		Reference:   strings.TrimSpace(in.Reference),
		Company:     strings.TrimSpace(in.Company),
		Description: strings.TrimSpace(in.Description),
		Status:      in.Status,
	}
}

// ToEntity converts trimmed input into a persistable order.
func (in OrderInput) ToEntity() *entity.ServiceOrder {
	t := in.Trimmed()
	return &entity.ServiceOrder{
		Reference:   t.Reference,
		Company:     t.Company,
		Description: t.Description,
		Status:      entity.Status(t.Status),
	}
}

// InputFromEntity prefills a form from a stored order.
func InputFromEntity(order *entity.ServiceOrder) OrderInput {
	if order == nil {
		return OrderInput{Status: string(entity.StatusPending)}
	}
	return OrderInput{
		Reference:   order.Reference,
		Company:     order.Company,
		Description: order.Description,
		Status:      string(order.Status),
	}
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID          int64     `json:"id"`
	Reference   string    `json:"reference"`
	Company     string    `json:"company"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// FromEntity maps a stored order onto its transport representation.
func FromEntity(order *entity.ServiceOrder) OrderResponse {
	return OrderResponse{
		ID:          order.ID,
		Reference:   order.Reference,
		Company:     order.Company,
		Description: order.Description,
		Status:      string(order.Status),
		CreatedAt:   order.CreatedAt,
	}
}

// FromEntities maps a slice of stored orders, never returning nil.
func FromEntities(orders []entity.ServiceOrder) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, FromEntity(&orders[i]))
	}
	return out
}
