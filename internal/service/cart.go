package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/cart_ledger/internal/models"
	"github.com/Skotchmaster/cart_ledger/internal/repo"
)

const DefaultTopic = "cart_events"

// CartService is the cart ledger. Each operation runs in one transaction and
// checks user, then product, then the cart line, stopping at the first miss.
type CartService struct {
	Repo      *repo.GormRepo
	Publisher Publisher
	Topic     string
}

func New(r *repo.GormRepo, p Publisher, topic string) *CartService {
	if topic == "" {
		topic = DefaultTopic
	}
	return &CartService{Repo: r, Publisher: p, Topic: topic}
}

func requireUserAndProduct(ctx context.Context, tx *repo.GormRepo, userID, productID uint) error {
	if err := requireUser(ctx, tx, userID); err != nil {
		return err
	}
	ok, err := tx.ProductExists(ctx, productID)
	if err != nil {
		return fmt.Errorf("lookup product %d: %w", productID, err)
	}
	if !ok {
		return notFound(EntityProduct)
	}
	return nil
}

func requireUser(ctx context.Context, tx *repo.GormRepo, userID uint) error {
	ok, err := tx.UserExists(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user %d: %w", userID, err)
	}
	if !ok {
		return notFound(EntityUser)
	}
	return nil
}

func (s *CartService) AddOrIncrement(ctx context.Context, userID, productID uint) (*models.CartItem, error) {
	var item *models.CartItem
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := requireUserAndProduct(ctx, tx, userID, productID); err != nil {
			return err
		}
		var err error
		item, err = tx.IncrementCartItem(ctx, userID, productID)
		if err != nil {
			return fmt.Errorf("increment cart item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, CartEvent{Type: EventItemAdded, UserID: userID, ProductID: productID, Quantity: item.Quantity})
	return item, nil
}

func (s *CartService) Remove(ctx context.Context, userID, productID uint) error {
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := requireUserAndProduct(ctx, tx, userID, productID); err != nil {
			return err
		}
		if err := tx.DeleteCartItem(ctx, userID, productID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(EntityCartItem)
			}
			return fmt.Errorf("delete cart item: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, CartEvent{Type: EventItemRemoved, UserID: userID, ProductID: productID})
	return nil
}

// SetQuantity overwrites the line quantity. Non-positive counts are rejected;
// Remove is the way to drop a line.
func (s *CartService) SetQuantity(ctx context.Context, userID, productID uint, count int) (*models.CartItem, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be greater than zero, got %d: %w", count, ErrValidation)
	}

	var item *models.CartItem
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := requireUserAndProduct(ctx, tx, userID, productID); err != nil {
			return err
		}
		var err error
		item, err = tx.LockCartItem(ctx, userID, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(EntityCartItem)
			}
			return fmt.Errorf("lock cart item: %w", err)
		}
		if err := tx.SetCartItemQuantity(ctx, item, count); err != nil {
			return fmt.Errorf("update quantity: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, CartEvent{Type: EventQuantityChanged, UserID: userID, ProductID: productID, Quantity: item.Quantity})
	return item, nil
}

func (s *CartService) GetCart(ctx context.Context, userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		var err error
		items, err = tx.GetCart(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
