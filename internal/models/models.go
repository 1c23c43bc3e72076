package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleCommon    = "COMMON"
	RoleModerator = "MODERATOR"
	RoleLogistics = "LOGISTICS"
	RoleAdmin     = "ADMIN"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const (
	ProductStatusInReview = "IN_REVIEW"
	ProductStatusApproved = "APPROVED"
	ProductStatusRejected = "REJECTED"
)

const (
	ProductConditionNew  = "NEW"
	ProductConditionUsed = "USED"
)

const (
	CategoryTechnology = "TECHNOLOGY"
	CategoryHome       = "HOME"
	CategoryAcademic   = "ACADEMIC"
	CategoryPersonal   = "PERSONAL"
	CategoryDecoration = "DECORATION"
	CategoryOther      = "OTHER"
)

type Product struct {
	ID          int64           `json:"id"`
	OwnerID     int64           `json:"owner_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	ImageURL    string          `json:"image_url"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Condition   string          `json:"condition"`
	Category    string          `json:"category"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Purchasable reports whether the product can be added to a cart or bought.
// Only APPROVED listings are visible in the catalog.
func (p *Product) Purchasable() bool {
	return p.Status == ProductStatusApproved
}

// Cart is the per-user mutable line collection. Exactly one cart per user;
// the row survives checkout, only its items are wiped.
type Cart struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Subtotal is derived on read from the snapshot prices, never persisted.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].LineTotal())
	}
	return total
}

// CartItem holds a quantity and the unit price snapshotted at the most
// recent mutation of the line, not frozen at first add.
type CartItem struct {
	ID        int64           `json:"id"`
	CartID    int64           `json:"cart_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	// Denormalized product fields for cart views.
	ProductName  string          `json:"product_name,omitempty"`
	ProductImage string          `json:"product_image,omitempty"`
	ProductPrice decimal.Decimal `json:"product_price"`
}

func (ci *CartItem) LineTotal() decimal.Decimal {
	return ci.UnitPrice.Mul(decimal.NewFromInt(int64(ci.Quantity)))
}

const (
	OrderStatusPlaced    = "PLACED"
	OrderStatusShipped   = "SHIPPED"
	OrderStatusDelivered = "DELIVERED"
)

// Order is immutable after checkout except for Status, which only moves
// forward (PLACED -> SHIPPED -> DELIVERED).
type Order struct {
	ID              int64           `json:"id"`
	BuyerID         int64           `json:"buyer_id"`
	Status          string          `json:"status"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	PlatformFee     decimal.Decimal `json:"platform_fee"`
	SellerAmount    decimal.Decimal `json:"seller_amount"`
	CreatedAt       time.Time       `json:"created_at"`
	DeliveryDueDate time.Time       `json:"delivery_due_date"`
	Items           []OrderItem     `json:"items,omitempty"`
}

// OrderItem is a purchase-time snapshot; unit price, name and line total
// stay fixed no matter what happens to the product afterwards.
type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Payment stores the card snapshot for its order. The full number is kept
// as-is; gateway processing is out of scope.
type Payment struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"order_id"`
	CardHolder string          `json:"card_holder"`
	CardNumber string          `json:"card_number"`
	Brand      string          `json:"brand"`
	Amount     decimal.Decimal `json:"amount"`
	CardID     *int64          `json:"card_id,omitempty"`
	PaidAt     time.Time       `json:"paid_at"`
}

type SavedCard struct {
	ID         int64     `json:"id"`
	OwnerID    int64     `json:"owner_id"`
	CardHolder string    `json:"card_holder"`
	CardNumber string    `json:"card_number"`
	Brand      string    `json:"brand"`
	Label      string    `json:"label,omitempty"`
	ExpMonth   *int      `json:"exp_month,omitempty"`
	ExpYear    *int      `json:"exp_year,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
