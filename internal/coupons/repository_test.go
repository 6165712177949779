package coupons

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovenline/pizzeria-backend/pkg/db/dbtest"
	"github.com/ovenline/pizzeria-backend/pkg/db/models"
	"github.com/ovenline/pizzeria-backend/pkg/enums"
)

func TestRepositoryFindByCodeIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	require.NoError(t, repo.Create(ctx, &models.Coupon{
		Code:          "FREESLICE",
		DiscountType:  enums.DiscountTypeFixed,
		DiscountValue: decimal.NewFromInt(4),
		IsActive:      true,
	}))

	found, err := repo.FindByCode(ctx, " freeslice")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.DiscountValue.Equal(decimal.NewFromInt(4)))

	missing, err := repo.FindByCode(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryClaimRespectsMaxUses(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	one := 1
	coupon := &models.Coupon{
		Code:          "ONCE",
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(20),
		MaxUses:       &one,
		IsActive:      true,
	}
	require.NoError(t, repo.Create(ctx, coupon))

	claimed, err := repo.Claim(ctx, coupon.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.Claim(ctx, coupon.ID)
	require.NoError(t, err)
	assert.False(t, claimed)

	reloaded, err := repo.FindByID(ctx, coupon.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.UsedCount)
}

func TestRepositoryClaimUnlimited(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	coupon := &models.Coupon{
		Code:          "ALWAYS",
		DiscountType:  enums.DiscountTypeFixed,
		DiscountValue: decimal.NewFromInt(2),
		IsActive:      true,
	}
	require.NoError(t, repo.Create(ctx, coupon))

	for i := 0; i < 3; i++ {
		claimed, err := repo.Claim(ctx, coupon.ID)
		require.NoError(t, err)
		assert.True(t, claimed)
	}
	reloaded, err := repo.FindByID(ctx, coupon.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.UsedCount)
}

func TestRepositoryCreateKeepsInactiveFlag(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	coupon := &models.Coupon{
		Code:          "PAUSED",
		DiscountType:  enums.DiscountTypeFixed,
		DiscountValue: decimal.NewFromInt(3),
		IsActive:      false,
	}
	require.NoError(t, repo.Create(ctx, coupon))

	reloaded, err := repo.FindByID(ctx, coupon.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive)

	deleted, err := repo.Delete(ctx, coupon.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
}
