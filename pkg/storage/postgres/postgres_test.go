package postgres

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/storage"
)

func TestFail(t *testing.T) {
	c := &conn{logger: ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})}
	ctx := context.Background()

	t.Run("foreign key violation is not found", func(t *testing.T) {
		err := c.fail(ctx, &pq.Error{Code: foreignKeyViolation}, "create payment", "invoice", "inv-1")
		assert.True(t, storage.IsNotFound(err))
	})

	t.Run("unique violation is a conflict", func(t *testing.T) {
		err := c.fail(ctx, &pq.Error{Code: uniqueViolation, Constraint: "customers_pkey"}, "create customer", "customer", "c-1")
		assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
	})

	t.Run("http errors pass through", func(t *testing.T) {
		original := storage.NotFound("lead", "l-1")
		assert.Equal(t, original, c.fail(ctx, original, "update lead", "lead", "l-1"))
	})

	t.Run("anything else is internal", func(t *testing.T) {
		err := c.fail(ctx, errors.New("connection reset"), "list leads", "lead", "")
		assert.Equal(t, http.StatusInternalServerError, httperror.GetStatusCode(err))
	})
}

func TestUpdateColumns(t *testing.T) {
	customers := newTable[models.Customer, models.CustomerInput, models.CustomerPatch](&conn{}, "customers", "customer", "")
	customer := models.Customer{Name: "Anita", Phone: "555-0199"}
	customer.Assign("c-1", models.Now())

	query, args := customers.updateColumns("c-1", &customer, []string{"phone", "updated_at"}).Build()
	assert.Equal(t, "UPDATE customers SET updated_at = $1, phone = $2 WHERE id = $3", query)
	assert.Equal(t, []any{customer.UpdatedAt, "555-0199", "c-1"}, args)

	items := newTable[models.QuoteItem, models.QuoteItemInput, models.QuoteItemPatch](&conn{}, "quote_items", "quote item", "")
	item := models.QuoteItem{ID: "qi-1", Quantity: 3, UnitPrice: decimal.NewFromInt(10)}
	item.Recalculate()

	query, args = items.updateColumns("qi-1", &item, []string{"quantity", "total_price"}).Build()
	assert.Equal(t, "UPDATE quote_items SET quantity = $1, total_price = $2 WHERE id = $3", query)
	assert.Equal(t, []any{3, item.TotalPrice, "qi-1"}, args)
}
