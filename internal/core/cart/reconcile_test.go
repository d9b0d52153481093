package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/pos-inventory/internal/core/domain"
)

func TestReconcile_PartialSettlement(t *testing.T) {
	c := New()
	c.AddOne(product("p1", 10, 0, 100))
	c.AddOne(product("p2", 10, 0, 100))
	c.AddOne(product("p3", 10, 0, 100))

	result := domain.CheckoutResult{Lines: []domain.LineResult{
		domain.Committed("p1", 1),
		domain.Rejected("p2", 1, domain.ReasonInsufficientStock, 0),
		domain.Committed("p3", 1),
	}}

	notices := c.Reconcile(result)
	require.Len(t, notices, 3)
	assert.Equal(t, NoticeSold, notices[0].Kind)
	assert.Equal(t, NoticeOutOfStock, notices[1].Kind)
	assert.Equal(t, 0, notices[1].Available)
	assert.Equal(t, NoticeSold, notices[2].Kind)

	snap := c.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "p2", snap[0].ProductID)
	assert.Equal(t, 1, snap[0].Quantity)
}

func TestReconcile_VanishedProductIsPurged(t *testing.T) {
	c := New()
	c.AddOne(product("p1", 10, 0, 100))
	c.AddOne(product("p2", 10, 0, 100))

	notices := c.Reconcile(domain.CheckoutResult{Lines: []domain.LineResult{
		domain.Rejected("p1", 1, domain.ReasonNotFound, 0),
		{ProductID: "p2", Requested: 1, Status: domain.LineUnknown},
	}})

	assert.Equal(t, NoticeVanished, notices[0].Kind)
	assert.Equal(t, NoticeUnknown, notices[1].Kind)
	_, ok := c.Get("p1")
	assert.False(t, ok)
	_, ok = c.Get("p2")
	assert.True(t, ok)
}

func TestReconcile_FullSuccessClears(t *testing.T) {
	c := New()
	p := product("p1", 10, 0, 100)
	c.AddOne(p)
	c.AddOne(p)

	req, err := c.Request("store-1")
	require.NoError(t, err)

	notices := c.Reconcile(domain.CheckoutResult{Lines: []domain.LineResult{
		domain.Committed(req.Lines[0].ProductID, req.Lines[0].Quantity),
	}})

	assert.Equal(t, NoticeSold, notices[0].Kind)
	assert.Equal(t, 2, notices[0].Quantity)
	assert.Equal(t, 0, c.Len())
}
