package models

type User struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"index"                    json:"name"`
}

func (User) TableName() string {
	return "users"
}

type Product struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"    json:"id"`
	Name string `gorm:"column:product_name;index"   json:"product_name"`
}

func (Product) TableName() string {
	return "products"
}

// CartItem is one line of a user's cart. At most one row exists per (user, product).
// User and Product are declared only so migrations emit the foreign keys.
type CartItem struct {
	ID        uint `gorm:"primaryKey;autoIncrement"                           json:"id"`
	UserID    uint `gorm:"uniqueIndex:idx_cart_user_product;not null"         json:"user_id"`
	ProductID uint `gorm:"uniqueIndex:idx_cart_user_product;index;not null"   json:"product_id"`
	Quantity  int  `gorm:"not null;default:1;check:chk_cart_quantity,quantity > 0" json:"quantity"`

	User    *User    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Product *Product `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (CartItem) TableName() string {
	return "cart"
}
