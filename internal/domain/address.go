package domain

import "time"

type DeliveryAddress struct {
	AddressID  string    `json:"id" dynamodbav:"address_id"`
	UserID     string    `json:"user_id" dynamodbav:"user_id"`
	FullName   string    `json:"full_name" dynamodbav:"full_name"`
	Phone      string    `json:"phone" dynamodbav:"phone"`
	Country    string    `json:"country" dynamodbav:"country"`
	City       string    `json:"city" dynamodbav:"city"`
	Street     string    `json:"street" dynamodbav:"street"`
	PostalCode string    `json:"postal_code" dynamodbav:"postal_code"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
}

type DeliveryAddressInput struct {
	FullName   string `json:"full_name" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Country    string `json:"country" validate:"required"`
	City       string `json:"city" validate:"required"`
	Street     string `json:"street" validate:"required"`
	PostalCode string `json:"postal_code"`
}
