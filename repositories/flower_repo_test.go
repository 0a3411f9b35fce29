package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kendall-kelly/bloomhouse-api/apperrors"
	"github.com/kendall-kelly/bloomhouse-api/models"
	"github.com/kendall-kelly/bloomhouse-api/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowerRepo_FindActiveByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewFlowerRepo(db)
	ctx := context.Background()

	rose := testutil.SeedFlower(t, db, "Red Rose", "9.90", 10)
	tulip := testutil.SeedFlower(t, db, "Tulip", "4.50", 5)
	testutil.Deactivate(t, db, &models.Flower{}, tulip.ID)

	found, err := repo.FindActiveByID(ctx, rose.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Red Rose", found.Name)
	assert.True(t, decimal.RequireFromString("9.90").Equal(found.UnitPrice))

	found, err = repo.FindActiveByID(ctx, tulip.ID)
	require.NoError(t, err)
	assert.Nil(t, found, "inactive flowers are hidden by default")

	found, err = repo.FindByID(ctx, tulip.ID, true)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.False(t, found.Active)

	found, err = repo.FindActiveByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFlowerRepo_Reserve(t *testing.T) {
	ctx := context.Background()

	t.Run("decrements stock and returns the flower", func(t *testing.T) {
		db := testutil.NewTestDB(t)
		repo := NewFlowerRepo(db)
		flower := testutil.SeedFlower(t, db, "Peony", "12.00", 10)

		reserved, err := repo.Reserve(ctx, flower.ID, 4)
		require.NoError(t, err)
		assert.Equal(t, 6, reserved.StockQuantity)
		assert.Equal(t, 6, testutil.StockOf(t, db, flower.ID))
	})

	t.Run("takes the last units exactly", func(t *testing.T) {
		db := testutil.NewTestDB(t)
		repo := NewFlowerRepo(db)
		flower := testutil.SeedFlower(t, db, "Peony", "12.00", 3)

		_, err := repo.Reserve(ctx, flower.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, 0, testutil.StockOf(t, db, flower.ID))
	})

	t.Run("insufficient stock leaves stock unchanged", func(t *testing.T) {
		db := testutil.NewTestDB(t)
		repo := NewFlowerRepo(db)
		flower := testutil.SeedFlower(t, db, "Peony", "12.00", 10)

		_, err := repo.Reserve(ctx, flower.ID, 20)
		var stockErr *apperrors.InsufficientStockError
		require.True(t, errors.As(err, &stockErr), "expected InsufficientStockError, got %v", err)
		assert.Equal(t, flower.ID, stockErr.FlowerID)
		assert.Equal(t, 10, stockErr.Available)
		assert.Equal(t, 20, stockErr.Requested)
		assert.Equal(t, 10, testutil.StockOf(t, db, flower.ID))
	})

	t.Run("inactive flower is unavailable", func(t *testing.T) {
		db := testutil.NewTestDB(t)
		repo := NewFlowerRepo(db)
		flower := testutil.SeedFlower(t, db, "Peony", "12.00", 10)
		testutil.Deactivate(t, db, &models.Flower{}, flower.ID)

		_, err := repo.Reserve(ctx, flower.ID, 1)
		var unavailable *apperrors.ItemUnavailableError
		require.True(t, errors.As(err, &unavailable))
		assert.Equal(t, flower.ID, unavailable.FlowerID)
		assert.Equal(t, 10, testutil.StockOf(t, db, flower.ID))
	})

	t.Run("missing flower is unavailable", func(t *testing.T) {
		db := testutil.NewTestDB(t)
		repo := NewFlowerRepo(db)

		_, err := repo.Reserve(ctx, 404, 1)
		var unavailable *apperrors.ItemUnavailableError
		require.True(t, errors.As(err, &unavailable))
		assert.Equal(t, uint(404), unavailable.FlowerID)
	})
}

// Two transactions are open at once: the second reserves while the first still
// holds its uncommitted decrement, and must be judged against the committed result.
func TestFlowerRepo_Reserve_OverlappingTransactions(t *testing.T) {
	db := testutil.OpenTestDB(t, 2)
	repo := New(db)
	ctx := context.Background()
	flower := testutil.SeedFlower(t, db, "Peony", "12.00", 10)

	firstReserved := make(chan struct{})
	releaseFirst := make(chan struct{})
	firstDone := make(chan error, 1)
	go func() {
		firstDone <- repo.WithTx(ctx, func(tx *Repository) error {
			if _, err := tx.Flowers.Reserve(ctx, flower.ID, 8); err != nil {
				close(firstReserved)
				return err
			}
			close(firstReserved)
			<-releaseFirst
			return nil
		})
	}()

	<-firstReserved
	secondDone := make(chan error, 1)
	go func() {
		secondDone <- repo.WithTx(ctx, func(tx *Repository) error {
			_, err := tx.Flowers.Reserve(ctx, flower.ID, 5)
			return err
		})
	}()

	// Give the second transaction time to reach its UPDATE and wait on the lock
	time.Sleep(100 * time.Millisecond)
	close(releaseFirst)

	require.NoError(t, <-firstDone)
	err := <-secondDone
	var stockErr *apperrors.InsufficientStockError
	require.True(t, errors.As(err, &stockErr), "expected InsufficientStockError, got %v", err)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, 2, testutil.StockOf(t, db, flower.ID))
}

func TestFlowerRepo_AdjustStock(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	repo := NewFlowerRepo(db)
	flower := testutil.SeedFlower(t, db, "Lily", "7.25", 5)

	updated, err := repo.AdjustStock(ctx, flower.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 15, updated.StockQuantity)

	updated, err = repo.AdjustStock(ctx, flower.ID, -15)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.StockQuantity)

	_, err = repo.AdjustStock(ctx, flower.ID, -1)
	var negErr *apperrors.NegativeStockError
	require.True(t, errors.As(err, &negErr), "expected NegativeStockError, got %v", err)
	assert.Equal(t, 0, negErr.Current)
	assert.Equal(t, -1, negErr.Delta)
	assert.Equal(t, 0, testutil.StockOf(t, db, flower.ID))

	_, err = repo.AdjustStock(ctx, 9999, 1)
	var notFound *apperrors.NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestFlowerRepo_AdjustStock_InactiveFlower(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	repo := NewFlowerRepo(db)
	flower := testutil.SeedFlower(t, db, "Lily", "7.25", 5)
	testutil.Deactivate(t, db, &models.Flower{}, flower.ID)

	updated, err := repo.AdjustStock(ctx, flower.ID, 3)
	require.NoError(t, err, "restocking a deactivated flower is allowed")
	assert.Equal(t, 8, updated.StockQuantity)
}

func TestFlowerRepo_List(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	repo := NewFlowerRepo(db)

	seed := []struct {
		name     string
		category string
		price    string
	}{
		{"Red Rose", "rose", "9.90"},
		{"White Rose", "rose", "11.00"},
		{"Tulip", "tulip", "4.50"},
		{"Sunflower", "seasonal", "6.00"},
		{"Orchid", "exotic", "25.00"},
	}
	for _, s := range seed {
		f := testutil.SeedFlower(t, db, s.name, s.price, 10)
		require.NoError(t, db.Model(f).Update("category", s.category).Error)
	}

	minPrice := decimal.RequireFromString("6.00")
	maxPrice := decimal.RequireFromString("11.00")

	tests := []struct {
		name      string
		filter    FlowerFilter
		wantNames []string
		wantTotal int64
	}{
		{"all active, sorted by name", FlowerFilter{}, []string{"Orchid", "Red Rose", "Sunflower", "Tulip", "White Rose"}, 5},
		{"name substring is case-insensitive", FlowerFilter{Name: "ROSE"}, []string{"Red Rose", "White Rose"}, 2},
		{"category equality", FlowerFilter{Category: "tulip"}, []string{"Tulip"}, 1},
		{"inclusive price range", FlowerFilter{MinPrice: &minPrice, MaxPrice: &maxPrice}, []string{"Red Rose", "Sunflower", "White Rose"}, 3},
		{"min price only", FlowerFilter{MinPrice: &maxPrice}, []string{"Orchid", "White Rose"}, 2},
		{"pagination keeps the total", FlowerFilter{Limit: 2, Offset: 1}, []string{"Red Rose", "Sunflower"}, 5},
		{"no match", FlowerFilter{Name: "cactus"}, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flowers, total, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)

			var names []string
			for _, f := range flowers {
				names = append(names, f.Name)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestFlowerRepo_List_WildcardsMatchLiterally(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	repo := NewFlowerRepo(db)

	for _, name := range []string{"baby_breath", "babyXbreath", "Peony 50% off", "Peony 500", `Back\slash`} {
		testutil.SeedFlower(t, db, name, "3.00", 10)
	}

	tests := []struct {
		search    string
		wantNames []string
	}{
		{"baby_breath", []string{"baby_breath"}},
		{"_", []string{"baby_breath"}},
		{"50%", []string{"Peony 50% off"}},
		{`k\s`, []string{`Back\slash`}},
	}

	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			flowers, _, err := repo.List(ctx, FlowerFilter{Name: tt.search})
			require.NoError(t, err)

			var names []string
			for _, f := range flowers {
				names = append(names, f.Name)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `baby\_breath`, escapeLike("baby_breath"))
	assert.Equal(t, `50\%`, escapeLike("50%"))
	assert.Equal(t, `a\\b`, escapeLike(`a\b`))
	assert.Equal(t, "rose", escapeLike("rose"))
}

func TestFlowerRepo_List_InactiveOnlyForStaff(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	repo := NewFlowerRepo(db)

	testutil.SeedFlower(t, db, "Daisy", "3.00", 10)
	retired := testutil.SeedFlower(t, db, "Carnation", "2.00", 10)
	testutil.Deactivate(t, db, &models.Flower{}, retired.ID)

	_, total, err := repo.List(ctx, FlowerFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, total, err = repo.List(ctx, FlowerFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestFlowerRepo_UpdateAndDeactivate(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	repo := NewFlowerRepo(db)
	flower := testutil.SeedFlower(t, db, "Daisy", "3.00", 10)

	require.NoError(t, repo.UpdateFields(ctx, flower.ID, map[string]any{
		"name":       "Gerbera Daisy",
		"unit_price": decimal.RequireFromString("3.75"),
	}))
	require.NoError(t, repo.SetImageKey(ctx, flower.ID, "flowers/1_daisy.png"))
	require.NoError(t, repo.Deactivate(ctx, flower.ID))

	stored, err := repo.FindByID(ctx, flower.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "Gerbera Daisy", stored.Name)
	assert.True(t, decimal.RequireFromString("3.75").Equal(stored.UnitPrice))
	require.NotNil(t, stored.ImageS3Key)
	assert.Equal(t, "flowers/1_daisy.png", *stored.ImageS3Key)
	assert.False(t, stored.Active)

	err = repo.UpdateFields(ctx, 9999, map[string]any{"name": "ghost"})
	var notFound *apperrors.NotFoundError
	assert.True(t, errors.As(err, &notFound))
}
