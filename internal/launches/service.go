package launches

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/launchboard-backend/pkg/db"
	"github.com/angelmondragon/launchboard-backend/pkg/db/models"
	"github.com/angelmondragon/launchboard-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/launchboard-backend/pkg/errors"
	"github.com/angelmondragon/launchboard-backend/pkg/logger"
	"github.com/angelmondragon/launchboard-backend/pkg/metrics"
)

const (
	orderExternalIDConstraint = "ux_orders_external_id"

	reasonCapacityExhausted = "capacity_exhausted"
	reasonSlugConflict      = "slug_conflict"
)

// ErrSlugConflict is returned when the owner already has a non-draft product with the slug.
var ErrSlugConflict = pkgerrors.New(pkgerrors.CodeConflict, "product slug already scheduled or launched")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires the fulfilment service.
type ServiceParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository *Repository
	Scheduler  *Scheduler
	Metrics    *metrics.LaunchMetrics
	Now        func() time.Time
}

// Service turns fulfilled orders into scheduled products.
type Service struct {
	logg      *logger.Logger
	db        txRunner
	repo      *Repository
	scheduler *Scheduler
	metrics   *metrics.LaunchMetrics
	now       func() time.Time
}

// NewService builds the fulfilment service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("repository required")
	}
	if params.Scheduler == nil {
		return nil, fmt.Errorf("scheduler required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		scheduler: params.Scheduler,
		metrics:   params.Metrics,
		now:       now,
	}, nil
}

// Fulfill schedules the product of a fulfilled order and records the order, all in one transaction.
// When no slot can be booked the order is stored for manual review and the business error is returned
// alongside the result; datastore errors abort and are returned without a result.
func (s *Service) Fulfill(ctx context.Context, event OrderFulfilled) (*FulfillResult, error) {
	if err := normalize(&event); err != nil {
		return nil, err
	}
	ctx = s.logg.WithExternalID(ctx, event.ExternalID)
	ctx = s.logg.WithOwnerID(ctx, event.UserID)

	var (
		result  *FulfillResult
		failure error
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		result, failure = nil, nil

		existing, err := repo.FindOrderByExternalID(ctx, event.ExternalID)
		if err != nil {
			return fmt.Errorf("lookup order: %w", err)
		}
		if existing != nil {
			result, err = duplicateResult(ctx, repo, existing)
			return err
		}

		draft, err := repo.FindDraft(ctx, event.UserID, event.ProductSlug)
		if err != nil {
			return fmt.Errorf("lookup draft: %w", err)
		}
		if draft == nil {
			taken, err := repo.FindProduct(ctx, event.UserID, event.ProductSlug)
			if err != nil {
				return fmt.Errorf("lookup product: %w", err)
			}
			if taken != nil {
				failure = ErrSlugConflict
				result, err = s.recordManualReview(ctx, repo, event, reasonSlugConflict)
				return err
			}
		}

		launchDate, err := s.scheduler.AssignLaunchSlot(ctx, repo, event.PlanTier, event.SelectedDate)
		if errors.Is(err, ErrCapacityExhausted) {
			failure = ErrCapacityExhausted
			result, err = s.recordManualReview(ctx, repo, event, reasonCapacityExhausted)
			return err
		}
		if err != nil {
			return err
		}

		product, created, err := s.upsertProduct(ctx, repo, draft, event, launchDate)
		if err != nil {
			return err
		}
		order := s.newOrder(event, enums.OrderStatusFulfilled)
		order.ProductID = &product.ID
		if err := repo.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		result = resultFromOrder(order, product)
		result.Created = created
		return nil
	})
	if err != nil && db.IsUniqueViolation(err, orderExternalIDConstraint) {
		// a concurrent delivery of the same payment committed first
		failure = nil
		result, err = s.loadDuplicate(ctx, event.ExternalID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fulfil order")
	}

	if failure != nil {
		s.metrics.IncManualReview(result.Reason)
		s.logg.Error(s.logg.WithField(ctx, "reason", result.Reason), "order parked for manual review", failure)
		return result, failure
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"plan":      event.PlanTier.String(),
		"duplicate": result.Duplicate,
		"created":   result.Created,
	})
	if result.ProductID != nil {
		logCtx = s.logg.WithProductID(logCtx, result.ProductID.String())
	}
	if !result.Duplicate {
		s.metrics.IncScheduled(event.PlanTier.String())
	}
	s.logg.Info(logCtx, "order fulfilled")
	return result, nil
}

func (s *Service) loadDuplicate(ctx context.Context, externalID string) (*FulfillResult, error) {
	existing, err := s.repo.FindOrderByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("order %s missing after unique violation", externalID)
	}
	return duplicateResult(ctx, s.repo, existing)
}

func duplicateResult(ctx context.Context, repo *Repository, order *models.Order) (*FulfillResult, error) {
	var product *models.Product
	if order.ProductID != nil {
		found, err := repo.FindProductByID(ctx, *order.ProductID)
		if err != nil {
			return nil, fmt.Errorf("lookup product: %w", err)
		}
		product = found
	}
	result := resultFromOrder(order, product)
	result.Duplicate = true
	return result, nil
}

func (s *Service) upsertProduct(ctx context.Context, repo *Repository, draft *models.Product, event OrderFulfilled, launchDate time.Time) (*models.Product, bool, error) {
	if draft != nil {
		updates := map[string]any{
			"name":        event.ProductName,
			"tagline":     event.Tagline,
			"description": event.Description,
			"website_url": event.DomainURL,
			"status":      enums.ProductStatusScheduled,
			"launch_date": launchDate,
			"plan_tier":   event.PlanTier,
		}
		if err := repo.UpdateDraft(ctx, draft.ID, updates); err != nil {
			return nil, false, fmt.Errorf("update draft: %w", err)
		}
		draft.Name = event.ProductName
		draft.Tagline = event.Tagline
		draft.Description = event.Description
		draft.WebsiteURL = event.DomainURL
		draft.Status = enums.ProductStatusScheduled
		draft.LaunchDate = &launchDate
		draft.PlanTier = event.PlanTier
		return draft, false, nil
	}

	product := &models.Product{
		OwnerID:      event.UserID,
		Slug:         event.ProductSlug,
		Name:         event.ProductName,
		Tagline:      event.Tagline,
		Description:  event.Description,
		WebsiteURL:   event.DomainURL,
		IconURL:      optionalString(event.Media.Icon),
		ThumbnailURL: optionalString(event.Media.Thumbnail),
		Status:       enums.ProductStatusScheduled,
		LaunchDate:   &launchDate,
		PlanTier:     event.PlanTier,
	}
	if err := repo.CreateProduct(ctx, product, event.Categories, mediaRows(event.Media)); err != nil {
		return nil, false, fmt.Errorf("create product: %w", err)
	}
	return product, true, nil
}

func (s *Service) recordManualReview(ctx context.Context, repo *Repository, event OrderFulfilled, reason string) (*FulfillResult, error) {
	order := s.newOrder(event, enums.OrderStatusManualReview)
	order.FailureReason = &reason
	if err := repo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("insert manual review order: %w", err)
	}
	return resultFromOrder(order, nil), nil
}

func (s *Service) newOrder(event OrderFulfilled, status enums.OrderStatus) *models.Order {
	currency := event.Currency
	if currency == "" {
		currency = "USD"
	}
	return &models.Order{
		ExternalID:  event.ExternalID,
		UserID:      event.UserID,
		PlanTier:    event.PlanTier,
		Status:      status,
		Amount:      event.Amount,
		Currency:    currency,
		FulfilledAt: s.now().UTC(),
	}
}

// PromoteDue moves scheduled products whose launch date has arrived to launched.
func (s *Service) PromoteDue(ctx context.Context, now time.Time) (int64, error) {
	promoted, err := s.repo.PromoteDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("promote due launches: %w", err)
	}
	s.metrics.AddPromoted(promoted)
	return promoted, nil
}

func normalize(event *OrderFulfilled) error {
	event.ExternalID = strings.TrimSpace(event.ExternalID)
	event.UserID = strings.TrimSpace(event.UserID)
	event.ProductSlug = strings.ToLower(strings.TrimSpace(event.ProductSlug))
	event.ProductName = strings.TrimSpace(event.ProductName)
	if event.ExternalID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "external id required")
	}
	if event.UserID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if event.ProductSlug == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product slug required")
	}
	if event.ProductName == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	plan, err := enums.ParsePlanTier(string(event.PlanTier))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid plan tier")
	}
	event.PlanTier = plan
	if event.Amount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
	}
	event.Amount = event.Amount.Round(2)
	event.Currency = strings.ToUpper(strings.TrimSpace(event.Currency))
	return nil
}
