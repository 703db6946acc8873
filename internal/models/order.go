package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"
	StatusReturned   OrderStatus = "RETURNED"
	StatusRefunded   OrderStatus = "REFUNDED"
)

var orderStatuses = []OrderStatus{
	StatusPending,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
	StatusReturned,
	StatusRefunded,
}

func ParseOrderStatus(raw string) (OrderStatus, bool) {
	candidate := OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	for _, s := range orderStatuses {
		if s == candidate {
			return s, true
		}
	}
	return "", false
}

// RestoresStock reports whether entering s puts the ordered quantities back on the shelf.
func (s OrderStatus) RestoresStock() bool {
	return s == StatusCancelled || s == StatusReturned
}

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "COD"
	PaymentOnline PaymentMethod = "ONLINE"
	PaymentWallet PaymentMethod = "WALLET"
)

func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	switch PaymentMethod(strings.ToUpper(strings.TrimSpace(raw))) {
	case "", PaymentCOD:
		return PaymentCOD, true
	case PaymentOnline:
		return PaymentOnline, true
	case PaymentWallet:
		return PaymentWallet, true
	}
	return "", false
}

// OrderItem is a snapshot of a cart line taken when the order was placed.
type OrderItem struct {
	Product    primitive.ObjectID `bson:"product" json:"product"`
	Name       string             `bson:"name" json:"name"`
	Quantity   int                `bson:"quantity" json:"quantity"`
	Price      float64            `bson:"price" json:"price"`
	Image      string             `bson:"image" json:"image"`
	TotalPrice float64            `bson:"totalPrice" json:"totalPrice"`
	Restocked  bool               `bson:"restocked" json:"-"`
}

type ShippingAddress struct {
	FullName     string `bson:"fullName" json:"fullName" binding:"required"`
	AddressLine1 string `bson:"addressLine1" json:"addressLine1" binding:"required"`
	AddressLine2 string `bson:"addressLine2,omitempty" json:"addressLine2,omitempty"`
	City         string `bson:"city" json:"city" binding:"required"`
	State        string `bson:"state" json:"state" binding:"required"`
	PostalCode   string `bson:"postalCode" json:"postalCode" binding:"required"`
	Country      string `bson:"country" json:"country"`
	PhoneNumber  string `bson:"phoneNumber" json:"phoneNumber" binding:"required"`
}

// PaymentResult is the opaque capture record returned by the gateway.
type PaymentResult struct {
	ID           string `bson:"id" json:"id"`
	Status       string `bson:"status" json:"status"`
	UpdateTime   string `bson:"update_time" json:"update_time"`
	EmailAddress string `bson:"email_address" json:"email_address"`
}

// Order defines the persisted order document.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber     string             `bson:"orderNumber" json:"orderNumber"`
	User            primitive.ObjectID `bson:"user" json:"user"`
	OrderItems      []OrderItem        `bson:"orderItems" json:"orderItems"`
	ShippingAddress ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	PaymentMethod   PaymentMethod      `bson:"paymentMethod" json:"paymentMethod"`
	PaymentResult   *PaymentResult     `bson:"paymentResult,omitempty" json:"paymentResult,omitempty"`
	PaymentIntentID string             `bson:"paymentIntentId,omitempty" json:"paymentIntentId,omitempty"`
	ItemsPrice      float64            `bson:"itemsPrice" json:"itemsPrice"`
	ShippingPrice   float64            `bson:"shippingPrice" json:"shippingPrice"`
	TaxPrice        float64            `bson:"taxPrice" json:"taxPrice"`
	DiscountPrice   float64            `bson:"discountPrice" json:"discountPrice"`
	TotalPrice      float64            `bson:"totalPrice" json:"totalPrice"`
	IsPaid          bool               `bson:"isPaid" json:"isPaid"`
	PaidAt          *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	IsDelivered     bool               `bson:"isDelivered" json:"isDelivered"`
	DeliveredAt     *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	OrderStatus     OrderStatus        `bson:"orderStatus" json:"orderStatus"`
	TrackingNumber  string             `bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	CancelReason    string             `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`
	ReturnReason    string             `bson:"returnReason,omitempty" json:"returnReason,omitempty"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// OrderNumberFor derives the customer facing order number from the document id.
func OrderNumberFor(id primitive.ObjectID) string {
	hex := id.Hex()
	return "ORD-" + strings.ToUpper(hex[len(hex)-6:])
}

// PendingRestock lists the indexes of items whose stock has not been put back yet.
func (o *Order) PendingRestock() []int {
	var pending []int
	for i, item := range o.OrderItems {
		if !item.Restocked {
			pending = append(pending, i)
		}
	}
	return pending
}

// OrderSummary aggregates the admin order listing.
type OrderSummary struct {
	Count       int64   `bson:"count" json:"count"`
	TotalAmount float64 `bson:"totalAmount" json:"totalAmount"`
}
