package repo

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/cart_ledger/internal/models"
)

func InitTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.CartItem{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func seed(t *testing.T, db *gorm.DB) {
	require.NoError(t, db.Create(&models.User{ID: 1, Name: "alice"}).Error)
	require.NoError(t, db.Create(&models.Product{ID: 1, Name: "apple"}).Error)
	require.NoError(t, db.Create(&models.Product{ID: 2, Name: "pear"}).Error)
}

func TestExists(t *testing.T) {
	db := InitTestDB(t)
	seed(t, db)
	r := New(db)
	ctx := context.Background()

	ok, err := r.UserExists(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = r.UserExists(ctx, 42)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = r.ProductExists(ctx, 2)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = r.ProductExists(ctx, 42)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIncrementCartItem(t *testing.T) {
	db := InitTestDB(t)
	seed(t, db)
	r := New(db)
	ctx := context.Background()

	item, err := r.IncrementCartItem(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, 1, item.Quantity)
	firstID := item.ID

	item, err = r.IncrementCartItem(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, 2, item.Quantity)
	require.Equal(t, firstID, item.ID)

	var count int64
	require.NoError(t, db.Model(&models.CartItem{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestSetAndDeleteCartItem(t *testing.T) {
	db := InitTestDB(t)
	seed(t, db)
	r := New(db)
	ctx := context.Background()

	_, err := r.IncrementCartItem(ctx, 1, 2)
	require.NoError(t, err)

	item, err := r.LockCartItem(ctx, 1, 2)
	require.NoError(t, err)
	require.NoError(t, r.SetCartItemQuantity(ctx, item, 7))
	require.Equal(t, 7, item.Quantity)

	stored, err := r.GetCartItem(ctx, 1, 2)
	require.NoError(t, err)
	require.Equal(t, 7, stored.Quantity)

	require.NoError(t, r.DeleteCartItem(ctx, 1, 2))
	require.ErrorIs(t, r.DeleteCartItem(ctx, 1, 2), gorm.ErrRecordNotFound)

	_, err = r.LockCartItem(ctx, 1, 2)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGetCartOnlyReturnsOwnItems(t *testing.T) {
	db := InitTestDB(t)
	seed(t, db)
	require.NoError(t, db.Create(&models.User{ID: 2, Name: "bob"}).Error)
	r := New(db)
	ctx := context.Background()

	_, err := r.IncrementCartItem(ctx, 1, 1)
	require.NoError(t, err)
	_, err = r.IncrementCartItem(ctx, 2, 1)
	require.NoError(t, err)
	_, err = r.IncrementCartItem(ctx, 1, 2)
	require.NoError(t, err)

	items, err := r.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		require.Equal(t, uint(1), it.UserID)
	}

	empty, err := r.GetCart(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Len(t, empty, 0)
}

func TestTransactionRollsBack(t *testing.T) {
	db := InitTestDB(t)
	seed(t, db)
	r := New(db)
	ctx := context.Background()
	boom := errors.New("boom")

	err := r.Transaction(ctx, func(tx *GormRepo) error {
		if _, err := tx.IncrementCartItem(ctx, 1, 1); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = r.GetCartItem(ctx, 1, 1)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestQuantityCheckConstraint(t *testing.T) {
	db := InitTestDB(t)
	seed(t, db)

	err := db.Create(&models.CartItem{UserID: 1, ProductID: 1, Quantity: -3}).Error
	require.Error(t, err)
}

func newMockRepo(t *testing.T) (*GormRepo, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return New(db), mock
}

func TestIncrementCartItemPostgresUpsert(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO "cart" .*ON CONFLICT \("user_id","product_id"\) DO UPDATE SET .*"cart"."quantity" \+ excluded.quantity`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectQuery(`SELECT \* FROM "cart" WHERE user_id = \$1 AND product_id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "product_id", "quantity"}).AddRow(11, 1, 5, 4))

	item, err := r.IncrementCartItem(context.Background(), 1, 5)
	require.NoError(t, err)
	require.Equal(t, uint(11), item.ID)
	require.Equal(t, 4, item.Quantity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLockCartItemPostgresForUpdate(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT \* FROM "cart" WHERE user_id = \$1 AND product_id = \$2 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "product_id", "quantity"}))

	_, err := r.LockCartItem(context.Background(), 1, 5)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

// interleavedWriter registers a hook that, right before the first write to the cart
// table, bumps the line through a second connection. Any increment computed from a
// value read earlier in the call loses that bump.
func interleavedWriter(t *testing.T, db, other *gorm.DB, userID, productID uint) *error {
	var (
		once    sync.Once
		hookErr error
	)
	bump := func(tx *gorm.DB) {
		if tx.Statement.Table != "cart" {
			return
		}
		once.Do(func() {
			hookErr = other.Exec("UPDATE cart SET quantity = quantity + 1 WHERE user_id = ? AND product_id = ?", userID, productID).Error
		})
	}
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:interleave_create", bump))
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:interleave_update", bump))
	return &hookErr
}

func TestIncrementCartItemKeepsConcurrentWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.db")
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), SkipDefaultTransaction: true}

	db, err := gorm.Open(sqlite.Open(path), cfg)
	require.NoError(t, err)
	other, err := gorm.Open(sqlite.Open(path), cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		for _, g := range []*gorm.DB{db, other} {
			if sqlDB, err := g.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
	})

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}, &models.CartItem{}))
	seed(t, db)
	require.NoError(t, db.Create(&models.CartItem{UserID: 1, ProductID: 1, Quantity: 1}).Error)

	hookErr := interleavedWriter(t, db, other, 1, 1)

	item, err := New(db).IncrementCartItem(context.Background(), 1, 1)
	require.NoError(t, err)
	require.NoError(t, *hookErr)
	require.Equal(t, 3, item.Quantity)

	var stored models.CartItem
	require.NoError(t, other.Where("user_id = ? AND product_id = ?", 1, 1).First(&stored).Error)
	require.Equal(t, 3, stored.Quantity)
}
