package service

import (
	"context"
	"testing"

	"brokerdesk/internal/dto"
	"brokerdesk/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func propertyReq(title string, price int64) dto.CreatePropertyRequest {
	return dto.CreatePropertyRequest{
		Title:        title,
		PropertyType: string(model.PropertyVilla),
		Address:      "1 Ocean Drive",
		City:         "Harbour City",
		Price:        decimal.NewFromInt(price),
	}
}

func TestPropertyCreate_OwnerIsActor(t *testing.T) {
	e := newEnv(t)
	p, err := e.propertySvc.Create(context.Background(), e.org.agent, propertyReq("Garden Flat", 300))
	require.NoError(t, err)

	assert.Equal(t, e.org.agent.ID.String(), p.OwnerID)
	assert.Equal(t, "Agent", p.OwnerName)
	assert.Equal(t, string(model.PropertyAvailable), p.Status)
	assert.NotNil(t, p.Images)
}

func TestPropertyVisibility(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mine, err := e.propertySvc.Create(ctx, e.org.agent, propertyReq("Garden Flat", 300))
	require.NoError(t, err)
	_, err = e.propertySvc.Create(ctx, e.org.agent2, propertyReq("Loft", 400))
	require.NoError(t, err)
	_, err = e.propertySvc.Create(ctx, e.org.sales, propertyReq("Corner Shop", 500))
	require.NoError(t, err)

	all, err := e.propertySvc.List(ctx, e.org.admin, dto.PropertyQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	salesView, err := e.propertySvc.List(ctx, e.org.sales, dto.PropertyQuery{})
	require.NoError(t, err)
	assert.Len(t, salesView, 2)

	team, err := e.propertySvc.Team(ctx, e.org.sales)
	require.NoError(t, err)
	require.Len(t, team, 1)
	assert.Equal(t, mine.ID, team[0].ID)

	own, err := e.propertySvc.Mine(ctx, e.org.sales)
	require.NoError(t, err)
	assert.Len(t, own, 1)

	byOwner, err := e.propertySvc.List(ctx, e.org.edu, dto.PropertyQuery{OwnerID: e.org.agent2.ID.String()})
	require.NoError(t, err)
	assert.Len(t, byOwner, 1)

	_, err = e.propertySvc.Get(ctx, e.org.agent2, uuid.MustParse(mine.ID))
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = e.propertySvc.Get(ctx, e.org.agent, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPropertyUpdate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p, err := e.propertySvc.Create(ctx, e.org.agent, propertyReq("Garden Flat", 300))
	require.NoError(t, err)
	id := uuid.MustParse(p.ID)

	price := decimal.NewFromInt(320)
	updated, err := e.propertySvc.Update(ctx, e.org.agent, id, dto.UpdatePropertyRequest{Price: &price, Status: strPtr("pending")})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(price))
	assert.Equal(t, "pending", updated.Status)
	assert.Empty(t, e.notifier.to(e.org.agent.ID), "owners are not told about their own edits")

	_, err = e.propertySvc.Update(ctx, e.org.sales, id, dto.UpdatePropertyRequest{Title: strPtr("Nope")})
	assert.ErrorIs(t, err, ErrForbidden)

	zero := decimal.Zero
	_, err = e.propertySvc.Update(ctx, e.org.agent, id, dto.UpdatePropertyRequest{Price: &zero})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = e.propertySvc.Update(ctx, e.org.admin, id, dto.UpdatePropertyRequest{Title: strPtr("Garden Flat, renovated")})
	require.NoError(t, err)
	notes := e.notifier.to(e.org.agent.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationPropertyUpdate, notes[0].Type)

	got, err := e.propertySvc.Get(ctx, e.org.agent, id)
	require.NoError(t, err)
	assert.Equal(t, e.org.agent.ID.String(), got.OwnerID)
	assert.Equal(t, "Garden Flat, renovated", got.Title)
}

func TestPropertyDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p, err := e.propertySvc.Create(ctx, e.org.agent, propertyReq("Garden Flat", 300))
	require.NoError(t, err)
	id := uuid.MustParse(p.ID)

	assert.ErrorIs(t, e.propertySvc.Delete(ctx, e.org.sales, id), ErrForbidden)
	require.NoError(t, e.propertySvc.Delete(ctx, e.org.agent, id))
	assert.ErrorIs(t, e.propertySvc.Delete(ctx, e.org.agent, id), ErrNotFound)

	list, err := e.propertySvc.List(ctx, e.org.admin, dto.PropertyQuery{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPropertyStatistics(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for _, price := range []int64{100, 300} {
		_, err := e.propertySvc.Create(ctx, e.org.agent, propertyReq("Listing", price))
		require.NoError(t, err)
	}
	_, err := e.propertySvc.Create(ctx, e.org.agent2, propertyReq("Other", 1000))
	require.NoError(t, err)

	st, err := e.propertySvc.Statistics(ctx, e.org.admin, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalProperties)

	st, err = e.propertySvc.Statistics(ctx, e.org.sales, e.org.agent.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalProperties)
	assert.True(t, st.AveragePrice.Equal(decimal.NewFromInt(200)))

	_, err = e.propertySvc.Statistics(ctx, e.org.sales, e.org.agent2.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}
