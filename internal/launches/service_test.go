package launches

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/launchboard-backend/pkg/db"
	"github.com/angelmondragon/launchboard-backend/pkg/db/dbtest"
	"github.com/angelmondragon/launchboard-backend/pkg/db/models"
	"github.com/angelmondragon/launchboard-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/launchboard-backend/pkg/errors"
	"github.com/angelmondragon/launchboard-backend/pkg/logger"
)

// Sunday, so the first join slot is the following-but-one Monday.
var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type serviceHarness struct {
	conn *gorm.DB
	svc  *Service
}

func newServiceHarness(t *testing.T, params SchedulerParams) serviceHarness {
	t.Helper()
	conn := dbtest.Open(t)
	if params.Now == nil {
		params.Now = fixedNow(testNow)
	}
	svc, err := NewService(ServiceParams{
		Logger:     logger.New(logger.Options{ServiceName: "launches-test"}),
		DB:         db.Wrap(conn),
		Repository: NewRepository(conn),
		Scheduler:  NewScheduler(params),
		Now:        params.Now,
	})
	require.NoError(t, err)
	return serviceHarness{conn: conn, svc: svc}
}

func joinEvent(n int) OrderFulfilled {
	return OrderFulfilled{
		ExternalID:  fmt.Sprintf("pay_%d", n),
		UserID:      fmt.Sprintf("user-%d", n),
		PlanTier:    enums.PlanTierJoin,
		ProductSlug: fmt.Sprintf("product-%d", n),
		ProductName: fmt.Sprintf("Product %d", n),
		Tagline:     "ship faster",
		DomainURL:   "https://example.com",
		Categories:  []string{"devtools", "ai"},
		Media: SubmissionMedia{
			Icon:        "https://cdn.example.com/icon.png",
			Thumbnail:   "https://cdn.example.com/thumb.png",
			Screenshots: []string{"https://cdn.example.com/1.png", "https://cdn.example.com/2.png"},
		},
		Amount:   decimal.RequireFromString("29.00"),
		Currency: "usd",
	}
}

func countRows(t *testing.T, conn *gorm.DB, model any, where ...any) int64 {
	t.Helper()
	var count int64
	q := conn.Model(model)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	require.NoError(t, q.Count(&count).Error)
	return count
}

func TestFulfillBooksConsecutiveWeeksForJoinOrders(t *testing.T) {
	h := newServiceHarness(t, SchedulerParams{CapacityPerWeek: 1})
	ctx := context.Background()

	var dates []time.Time
	for i := 1; i <= 3; i++ {
		result, err := h.svc.Fulfill(ctx, joinEvent(i))
		require.NoError(t, err)
		require.NotNil(t, result.LaunchDate)
		assert.True(t, result.Created)
		assert.Equal(t, enums.OrderStatusFulfilled, result.OrderStatus)
		dates = append(dates, result.LaunchDate.UTC())
	}

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, []time.Time{day.AddDate(0, 0, 8), day.AddDate(0, 0, 15), day.AddDate(0, 0, 22)}, dates)
	assert.EqualValues(t, 3, countRows(t, h.conn, &models.Product{}, "status = ?", enums.ProductStatusScheduled))
	assert.EqualValues(t, 3, countRows(t, h.conn, &models.Order{}))
	assert.EqualValues(t, 6, countRows(t, h.conn, &models.ProductCategory{}))
	assert.EqualValues(t, 12, countRows(t, h.conn, &models.ProductMedia{}))

	var slots []models.LaunchWeekSlot
	require.NoError(t, h.conn.Order("week_start").Find(&slots).Error)
	require.Len(t, slots, 3)
	for _, slot := range slots {
		assert.Equal(t, 1, slot.Booked)
	}
}

func TestFulfillFillsExistingDraftInPlace(t *testing.T) {
	h := newServiceHarness(t, SchedulerParams{})
	ctx := context.Background()
	draft := models.Product{OwnerID: "user-1", Slug: "product-1", Name: "Old name", Status: enums.ProductStatusDraft, PlanTier: enums.PlanTierFree}
	require.NoError(t, h.conn.Create(&draft).Error)

	result, err := h.svc.Fulfill(ctx, joinEvent(1))
	require.NoError(t, err)
	assert.False(t, result.Created)
	require.NotNil(t, result.ProductID)
	assert.Equal(t, draft.ID, *result.ProductID)

	var stored models.Product
	require.NoError(t, h.conn.First(&stored, "id = ?", draft.ID).Error)
	assert.Equal(t, "Product 1", stored.Name)
	assert.Equal(t, "ship faster", stored.Tagline)
	assert.Equal(t, "https://example.com", stored.WebsiteURL)
	assert.Equal(t, enums.ProductStatusScheduled, stored.Status)
	assert.Equal(t, enums.PlanTierJoin, stored.PlanTier)
	require.NotNil(t, stored.LaunchDate)
	assert.EqualValues(t, 1, countRows(t, h.conn, &models.Product{}))
	assert.EqualValues(t, 0, countRows(t, h.conn, &models.ProductMedia{}), "draft fill must not duplicate media")
	assert.EqualValues(t, 0, countRows(t, h.conn, &models.ProductCategory{}))
}

func TestFulfillRedeliveryIsIdempotent(t *testing.T) {
	h := newServiceHarness(t, SchedulerParams{})
	ctx := context.Background()
	draft := models.Product{OwnerID: "user-1", Slug: "product-1", Name: "Draft", Status: enums.ProductStatusDraft, PlanTier: enums.PlanTierFree}
	require.NoError(t, h.conn.Create(&draft).Error)

	first, err := h.svc.Fulfill(ctx, joinEvent(1))
	require.NoError(t, err)
	second, err := h.svc.Fulfill(ctx, joinEvent(1))
	require.NoError(t, err)

	assert.True(t, second.Duplicate)
	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, first.ProductID, second.ProductID)
	require.NotNil(t, second.LaunchDate)
	assert.True(t, first.LaunchDate.Equal(*second.LaunchDate))
	assert.EqualValues(t, 1, countRows(t, h.conn, &models.Product{}))
	assert.EqualValues(t, 1, countRows(t, h.conn, &models.Order{}))

	var slot models.LaunchWeekSlot
	require.NoError(t, h.conn.First(&slot).Error)
	assert.Equal(t, 1, slot.Booked, "redelivery must not book a second slot")
}

func TestFulfillCapacityExhaustedParksOrder(t *testing.T) {
	h := newServiceHarness(t, SchedulerParams{SearchDays: 2})
	ctx := context.Background()
	for i, week := range []time.Time{time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)} {
		launch := week
		require.NoError(t, h.conn.Create(&models.Product{
			OwnerID: "seed", Slug: fmt.Sprintf("seed-%d", i), Name: "seed",
			Status: enums.ProductStatusScheduled, LaunchDate: &launch, PlanTier: enums.PlanTierJoin,
		}).Error)
	}

	result, err := h.svc.Fulfill(ctx, joinEvent(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCapacityExhausted))
	require.NotNil(t, result)
	assert.Equal(t, enums.OrderStatusManualReview, result.OrderStatus)
	assert.Equal(t, reasonCapacityExhausted, result.Reason)
	assert.Nil(t, result.ProductID)

	assert.EqualValues(t, 0, countRows(t, h.conn, &models.Product{}, "owner_id = ?", "user-1"))
	var order models.Order
	require.NoError(t, h.conn.First(&order, "external_id = ?", "pay_1").Error)
	assert.Equal(t, enums.OrderStatusManualReview, order.Status)
	assert.True(t, decimal.RequireFromString("29").Equal(order.Amount))
	assert.Equal(t, "USD", order.Currency)

	again, err := h.svc.Fulfill(ctx, joinEvent(1))
	require.NoError(t, err, "redelivery of a parked order is acknowledged")
	assert.True(t, again.Duplicate)
	assert.Equal(t, enums.OrderStatusManualReview, again.OrderStatus)
}

func TestFulfillSlugConflictWithLaunchedProduct(t *testing.T) {
	h := newServiceHarness(t, SchedulerParams{})
	ctx := context.Background()
	launched := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	existing := models.Product{OwnerID: "user-1", Slug: "product-1", Name: "Live", Status: enums.ProductStatusLaunched, LaunchDate: &launched, PlanTier: enums.PlanTierFree}
	require.NoError(t, h.conn.Create(&existing).Error)

	result, err := h.svc.Fulfill(ctx, joinEvent(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSlugConflict))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
	assert.Equal(t, enums.OrderStatusManualReview, result.OrderStatus)

	var stored models.Product
	require.NoError(t, h.conn.First(&stored, "id = ?", existing.ID).Error)
	assert.Equal(t, enums.ProductStatusLaunched, stored.Status)
	assert.True(t, stored.LaunchDate.Equal(launched))
	assert.EqualValues(t, 0, countRows(t, h.conn, &models.LaunchWeekSlot{}))
}

func TestFulfillRelaunchNeedsFreshSlug(t *testing.T) {
	h := newServiceHarness(t, SchedulerParams{})
	ctx := context.Background()
	launched := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	existing := models.Product{OwnerID: "user-1", Slug: "product-1", Name: "Live", Status: enums.ProductStatusLaunched, LaunchDate: &launched, PlanTier: enums.PlanTierJoin}
	require.NoError(t, h.conn.Create(&existing).Error)

	sameSlug := joinEvent(1)
	sameSlug.PlanTier = enums.PlanTierRelaunch
	result, err := h.svc.Fulfill(ctx, sameSlug)
	require.ErrorIs(t, err, ErrSlugConflict)
	assert.Equal(t, enums.OrderStatusManualReview, result.OrderStatus)

	freshSlug := joinEvent(1)
	freshSlug.ExternalID = "pay_relaunch_v2"
	freshSlug.PlanTier = enums.PlanTierRelaunch
	freshSlug.ProductSlug = "product-1-v2"
	result, err = h.svc.Fulfill(ctx, freshSlug)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusFulfilled, result.OrderStatus)
	require.NotNil(t, result.LaunchDate)
	assert.EqualValues(t, 2, countRows(t, h.conn, &models.Product{}, "owner_id = ?", "user-1"))
}

func TestFulfillSkipWithSelectedDateIgnoresCapacity(t *testing.T) {
	h := newServiceHarness(t, SchedulerParams{})
	ctx := context.Background()
	first, err := h.svc.Fulfill(ctx, joinEvent(1))
	require.NoError(t, err)

	event := joinEvent(2)
	event.PlanTier = enums.PlanTierSkip
	selected := first.LaunchDate.Add(36 * time.Hour)
	event.SelectedDate = &selected

	result, err := h.svc.Fulfill(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), result.LaunchDate.UTC())

	var slot models.LaunchWeekSlot
	require.NoError(t, h.conn.First(&slot, "week_start = ?", time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)).Error)
	assert.Equal(t, 2, slot.Booked)
}

func TestFulfillRejectsInvalidEvents(t *testing.T) {
	h := newServiceHarness(t, SchedulerParams{})
	event := joinEvent(1)
	event.ExternalID = " "
	_, err := h.svc.Fulfill(context.Background(), event)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	event = joinEvent(1)
	event.PlanTier = "platinum"
	_, err = h.svc.Fulfill(context.Background(), event)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.EqualValues(t, 0, countRows(t, h.conn, &models.Order{}))
}

func TestFulfillConcurrentOrdersNeverExceedWeeklyCapacity(t *testing.T) {
	const capacity = 2
	h := newServiceHarness(t, SchedulerParams{CapacityPerWeek: capacity})
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 12)
	for i := 1; i <= 12; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			event := joinEvent(n)
			if n%3 == 0 {
				event.PlanTier = enums.PlanTierSkip
			}
			if _, err := h.svc.Fulfill(ctx, event); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("fulfil: %v", err)
	}

	var products []models.Product
	require.NoError(t, h.conn.Where("launch_date IS NOT NULL").Find(&products).Error)
	require.Len(t, products, 12)
	perWeek := map[time.Time]int{}
	for _, p := range products {
		start, _ := WeekBounds(*p.LaunchDate, time.UTC)
		perWeek[start]++
	}
	for week, n := range perWeek {
		assert.LessOrEqual(t, n, capacity, "week %s over capacity", week.Format(time.DateOnly))
	}
}

func TestPromoteDueMovesOnlyArrivedLaunches(t *testing.T) {
	h := newServiceHarness(t, SchedulerParams{})
	ctx := context.Background()
	past := testNow.Add(-time.Hour)
	future := testNow.Add(24 * time.Hour)
	due := models.Product{OwnerID: "o", Slug: "due", Name: "due", Status: enums.ProductStatusScheduled, LaunchDate: &past, PlanTier: enums.PlanTierJoin}
	later := models.Product{OwnerID: "o", Slug: "later", Name: "later", Status: enums.ProductStatusScheduled, LaunchDate: &future, PlanTier: enums.PlanTierJoin}
	draft := models.Product{OwnerID: "o", Slug: "draft", Name: "draft", Status: enums.ProductStatusDraft, PlanTier: enums.PlanTierFree}
	require.NoError(t, h.conn.Create(&due).Error)
	require.NoError(t, h.conn.Create(&later).Error)
	require.NoError(t, h.conn.Create(&draft).Error)

	promoted, err := h.svc.PromoteDue(ctx, testNow)
	require.NoError(t, err)
	assert.EqualValues(t, 1, promoted)

	var stored models.Product
	require.NoError(t, h.conn.First(&stored, "id = ?", due.ID).Error)
	assert.Equal(t, enums.ProductStatusLaunched, stored.Status)
	var pending models.Product
	require.NoError(t, h.conn.First(&pending, "id = ?", later.ID).Error)
	assert.Equal(t, enums.ProductStatusScheduled, pending.Status)

	promoted, err = h.svc.PromoteDue(ctx, testNow)
	require.NoError(t, err)
	assert.Zero(t, promoted)
}
