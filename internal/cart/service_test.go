package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovenline/pizzeria-backend/internal/products"
	"github.com/ovenline/pizzeria-backend/pkg/db/dbtest"
	"github.com/ovenline/pizzeria-backend/pkg/db/models"
	"github.com/ovenline/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/ovenline/pizzeria-backend/pkg/errors"
)

type fixture struct {
	svc        Service
	repo       *Repository
	margherita *models.Product
	cola       *models.Product
	retired    *models.Product
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	ctx := context.Background()
	catalog := products.NewRepository(conn)

	category := &models.Category{Name: "Menu", Slug: "menu"}
	require.NoError(t, catalog.CreateCategory(ctx, category))

	seed := func(name, slug, price string, available bool) *models.Product {
		p := &models.Product{
			Name:        name,
			Slug:        slug,
			Price:       decimal.RequireFromString(price),
			CategoryID:  category.ID,
			IsAvailable: available,
		}
		require.NoError(t, catalog.CreateProduct(ctx, p))
		return p
	}

	repo := NewRepository(conn)
	svc, err := NewService(repo, catalog)
	require.NoError(t, err)
	return fixture{
		svc:        svc,
		repo:       repo,
		margherita: seed("Margherita", "margherita", "12.99", true),
		cola:       seed("Cola", "cola", "2.49", true),
		retired:    seed("Hawaiian", "hawaiian", "11.00", false),
	}
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	first, err := f.svc.AddItem(ctx, userID, AddItemInput{ProductID: f.margherita.ID, Quantity: 1, Size: "large"})
	require.NoError(t, err)
	second, err := f.svc.AddItem(ctx, userID, AddItemInput{ProductID: f.margherita.ID, Quantity: 2, Size: "LARGE"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, second.Quantity)
	assert.Equal(t, enums.PizzaSizeLarge, second.Size)
	assert.Equal(t, "38.97", second.LineTotal)

	_, err = f.svc.AddItem(ctx, userID, AddItemInput{ProductID: f.margherita.ID, Quantity: 1})
	require.NoError(t, err)

	cart, err := f.svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2, "different sizes are separate lines")
	assert.Equal(t, 4, cart.ItemCount)
}

func TestGetComputesSubtotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := f.svc.AddItem(ctx, userID, AddItemInput{ProductID: f.margherita.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, userID, AddItemInput{ProductID: f.cola.ID, Quantity: 1})
	require.NoError(t, err)

	cart, err := f.svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "28.47", cart.Subtotal)
	require.NotNil(t, cart.Items[0].Product)
	assert.Equal(t, "margherita", cart.Items[0].Product.Slug)

	other, err := f.svc.Get(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other.Items)
	assert.Equal(t, "0.00", other.Subtotal)
}

func TestAddItemRejectsUnavailableAndUnknownProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, uuid.New(), AddItemInput{ProductID: f.retired.ID, Quantity: 1})
	assert.Equal(t, pkgerrors.CodeProductUnavailable, pkgerrors.As(err).Code())

	_, err = f.svc.AddItem(ctx, uuid.New(), AddItemInput{ProductID: uuid.New(), Quantity: 1})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	_, err = f.svc.AddItem(ctx, uuid.New(), AddItemInput{ProductID: f.cola.ID, Quantity: 0})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = f.svc.AddItem(ctx, uuid.New(), AddItemInput{ProductID: f.cola.ID, Quantity: 1, Size: "jumbo"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateAndRemoveAreScopedToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()

	item, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: f.cola.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = f.svc.UpdateQuantity(ctx, stranger, item.ID, 5)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(f.svc.RemoveItem(ctx, stranger, item.ID)).Code())

	updated, err := f.svc.UpdateQuantity(ctx, owner, item.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity)
	assert.Equal(t, "12.45", updated.LineTotal)

	require.NoError(t, f.svc.RemoveItem(ctx, owner, item.ID))
	cart, err := f.svc.Get(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestDeleteByUserClearsOnlyThatCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	for _, user := range []uuid.UUID{alice, bob} {
		_, err := f.svc.AddItem(ctx, user, AddItemInput{ProductID: f.cola.ID, Quantity: 1})
		require.NoError(t, err)
	}
	require.NoError(t, f.repo.DeleteByUser(ctx, alice))

	items, err := f.repo.ListByUser(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, items)
	items, err = f.repo.ListByUser(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
