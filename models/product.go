package models

import "time"

type Product struct {
	ID            string    `json:"id" bson:"_id"`
	Name          string    `json:"name" bson:"name"`
	Description   string    `json:"description" bson:"description"`
	Price         float64   `json:"price" bson:"price"`
	DiscountPrice float64   `json:"discountPrice" bson:"discountPrice"`
	Stock         int       `json:"stock" bson:"stock"`
	Images        []string  `json:"images" bson:"images"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

// EffectivePrice is the discount price when one is set, otherwise the list price.
func (p *Product) EffectivePrice() float64 {
	if p.DiscountPrice > 0 {
		return p.DiscountPrice
	}
	return p.Price
}

// FirstImage returns the primary image or an empty string.
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

type CreateProductRequest struct {
	Name          string   `json:"name" binding:"required,notblank"`
	Description   string   `json:"description"`
	Price         float64  `json:"price" binding:"required,gt=0"`
	DiscountPrice float64  `json:"discountPrice" binding:"gte=0"`
	Stock         int      `json:"stock" binding:"gte=0"`
	Images        []string `json:"images"`
}

type UpdateProductRequest struct {
	Name          *string  `json:"name" binding:"omitempty,notblank"`
	Description   *string  `json:"description"`
	Price         *float64 `json:"price" binding:"omitempty,gt=0"`
	DiscountPrice *float64 `json:"discountPrice" binding:"omitempty,gte=0"`
	Stock         *int     `json:"stock" binding:"omitempty,gte=0"`
	Images        []string `json:"images"`
}

// Apply copies the non-nil fields of r onto p.
func (r *UpdateProductRequest) Apply(p *Product) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.DiscountPrice != nil {
		p.DiscountPrice = *r.DiscountPrice
	}
	if r.Stock != nil {
		p.Stock = *r.Stock
	}
	if r.Images != nil {
		p.Images = r.Images
	}
}
