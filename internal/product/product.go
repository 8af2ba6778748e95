// Package product manages the product catalog on top of a whole-collection
// store.
package product

import "time"

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (p Product) RecordID() string { return p.ID }

// Input carries caller-settable product fields. Nil fields are left
// unchanged on update and zero-valued on create.
type Input struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	Active      *bool    `json:"active"`
}

func (in Input) apply(p *Product) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
}
