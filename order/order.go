package order

import (
	"time"

	"github.com/medatechnology/goutil/medaerror"
	"github.com/shopspring/decimal"
)

// Status is the order lifecycle state. Orders are immutable after creation
// except for this field, which only moves along the fixed sequence
// new -> confirmed -> paid -> shipped -> delivered; cancellation is allowed
// from any non-terminal state.
type Status string

const (
	StatusNew       Status = "new"
	StatusConfirmed Status = "confirmed"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// ErrInvalidTransition is returned for a status change outside the sequence.
var ErrInvalidTransition medaerror.MedaError = medaerror.MedaError{Message: "invalid order status transition"}

var sequence = map[Status]Status{
	StatusNew:       StatusConfirmed,
	StatusConfirmed: StatusPaid,
	StatusPaid:      StatusShipped,
	StatusShipped:   StatusDelivered,
}

// CanTransition reports whether moving from one status to the next is
// allowed: the single next step in the sequence, or cancellation of any
// order that is not delivered or already cancelled.
func CanTransition(from, to Status) bool {
	if to == StatusCancelled {
		return from != StatusDelivered && from != StatusCancelled
	}
	return sequence[from] == to
}

// DeliveryMethod is one of the carriers the store ships with.
type DeliveryMethod string

const (
	DeliveryBoxberry    DeliveryMethod = "boxberry"
	DeliveryRussianPost DeliveryMethod = "russian_post"
	DeliveryCDEK        DeliveryMethod = "cdek"
)

// PaymentMethod. Bank transfer is the only one the store accepts.
type PaymentMethod string

const PaymentBankTransfer PaymentMethod = "bank_transfer"

// Item is an immutable snapshot of one cart line taken at order time, so
// later catalog edits never change historical orders.
type Item struct {
	ProductID    string          `json:"product_id" db:"product_id"`
	ProductName  string          `json:"product_name" db:"product_name"`
	ProductImage string          `json:"product_image" db:"product_image"`
	Size         string          `json:"size" db:"size"`
	Quantity     int             `json:"quantity" db:"quantity"`
	RealPrice    decimal.Decimal `json:"real_price" db:"real_price"`
	Total        decimal.Decimal `json:"total" db:"total"`
}

// Order is one submitted order. UserID is nil for anonymous checkouts.
type Order struct {
	ID              string          `json:"id" db:"id"`
	UserID          *int64          `json:"user_id" db:"user_id"`
	Items           []Item          `json:"items" db:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount" db:"total_amount"`
	CustomerName    string          `json:"customer_name" db:"customer_name"`
	CustomerPhone   string          `json:"customer_phone" db:"customer_phone"`
	CustomerEmail   string          `json:"customer_email,omitempty" db:"customer_email"`
	DeliveryAddress string          `json:"delivery_address" db:"delivery_address"`
	DeliveryMethod  DeliveryMethod  `json:"delivery_method" db:"delivery_method"`
	PaymentMethod   PaymentMethod   `json:"payment_method" db:"payment_method"`
	Status          Status          `json:"status" db:"status"`
	AdminNotes      string          `json:"admin_notes,omitempty" db:"admin_notes"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// TableName implements store.TableStruct.
func (o *Order) TableName() string {
	return "orders"
}

// Subtotal sums the snapshot line totals, before any discount.
func (o *Order) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.Total)
	}
	return sum
}

var activeStatuses = []Status{StatusNew, StatusConfirmed, StatusPaid, StatusShipped}

// Active filters orders still in flight: new, confirmed, paid or shipped.
func Active(orders []Order) []Order {
	var out []Order
	for _, o := range orders {
		for _, s := range activeStatuses {
			if o.Status == s {
				out = append(out, o)
				break
			}
		}
	}
	return out
}

// Completed filters delivered orders.
func Completed(orders []Order) []Order {
	return byStatus(orders, StatusDelivered)
}

// Cancelled filters cancelled orders.
func Cancelled(orders []Order) []Order {
	return byStatus(orders, StatusCancelled)
}

func byStatus(orders []Order, status Status) []Order {
	var out []Order
	for _, o := range orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}
