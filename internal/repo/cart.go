package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/cart_ledger/internal/models"
)

func (r *GormRepo) UserExists(ctx context.Context, userID uint) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) ProductExists(ctx context.Context, productID uint) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) GetCart(ctx context.Context, userID uint) ([]models.CartItem, error) {
	items := make([]models.CartItem, 0)
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetCartItem(ctx context.Context, userID, productID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// LockCartItem reads the row with FOR UPDATE. SQLite drops the locking clause;
// there the single connection already serializes writers.
func (r *GormRepo) LockCartItem(ctx context.Context, userID, productID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// IncrementCartItem inserts the line with quantity 1 or bumps the existing one
// in a single statement, then reads back the stored row.
func (r *GormRepo) IncrementCartItem(ctx context.Context, userID, productID uint) (*models.CartItem, error) {
	item := models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  1,
	}

	if err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity": gorm.Expr("? + excluded.quantity", clause.Column{Table: clause.CurrentTable, Name: "quantity"}),
			}),
		}).
		Create(&item).Error; err != nil {
		return nil, err
	}

	return r.GetCartItem(ctx, userID, productID)
}

func (r *GormRepo) SetCartItemQuantity(ctx context.Context, item *models.CartItem, count int) error {
	if err := r.DB.WithContext(ctx).Model(item).Update("quantity", count).Error; err != nil {
		return err
	}
	item.Quantity = count
	return nil
}

// DeleteCartItem reports gorm.ErrRecordNotFound when no line existed.
func (r *GormRepo) DeleteCartItem(ctx context.Context, userID, productID uint) error {
	res := r.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
