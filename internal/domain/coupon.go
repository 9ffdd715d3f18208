package domain

import "time"

type CouponType string

const (
	CouponPerItemDiscount    CouponType = "per_item_discount"
	CouponPerTotalDiscount   CouponType = "per_total_discount"
	CouponPercentageDiscount CouponType = "percentage_discount"
)

type CouponTarget string

const (
	CouponTargetProducts   CouponTarget = "products"
	CouponTargetCategories CouponTarget = "categories"
)

type CouponApplyTo struct {
	Entity CouponTarget `json:"entity" dynamodbav:"entity" validate:"required,oneof=products categories"`
	IDs    []string     `json:"ids" dynamodbav:"ids" validate:"required,min=1,dive,required"`
}

// Coupon is a schema-only record; no discount is computed from it here.
type Coupon struct {
	CouponID    string        `json:"id" dynamodbav:"coupon_id"`
	DateCreated time.Time     `json:"date_created" dynamodbav:"date_created"`
	NumUses     int           `json:"num_uses" dynamodbav:"num_uses"`
	Name        string        `json:"name" dynamodbav:"name"`
	Type        CouponType    `json:"type" dynamodbav:"type"`
	Amount      int           `json:"amount" dynamodbav:"amount"`
	MinPurchase int           `json:"min_purchase" dynamodbav:"min_purchase"`
	Expires     *time.Time    `json:"expires" dynamodbav:"expires"`
	Enabled     bool          `json:"enabled" dynamodbav:"enabled"`
	Code        string        `json:"code" dynamodbav:"code"`
	AppliesTo   CouponApplyTo `json:"applies_to" dynamodbav:"applies_to"`
}

type CouponInput struct {
	Name        string        `json:"name" validate:"required"`
	Type        CouponType    `json:"type" validate:"required,oneof=per_item_discount per_total_discount percentage_discount"`
	Amount      int           `json:"amount" validate:"gt=0"`
	MinPurchase int           `json:"min_purchase" validate:"gte=0"`
	Expires     *time.Time    `json:"expires"`
	Enabled     *bool         `json:"enabled"`
	Code        string        `json:"code" validate:"required"`
	AppliesTo   CouponApplyTo `json:"applies_to" validate:"required"`
}
