package application

import (
	"context"
	"time"

	"storefront-insights/internal/domain"
	"storefront-insights/internal/infrastructure/metrics"
	"storefront-insights/internal/ports"
	"storefront-insights/internal/retry"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// syncChunkSize bounds each batch insert. Mirrors the chunking the
// database tier is comfortable with regardless of how many records the
// first remote page returned.
const syncChunkSize = 1000

// SyncService is the reconciliation engine: it makes the local mirror
// eventually consistent with the remote store's customer and order
// collections without ever duplicating records across runs.
type SyncService struct {
	stores    ports.StoreRepository
	customers ports.CustomerRepository
	orders    ports.OrderRepository
	commerce  ports.CommerceClient
	status    ports.SyncStatusStore
	metrics   *metrics.Metrics
	retryCfg  retry.Config
	logger    zerolog.Logger
}

// NewSyncService creates a new reconciliation engine.
func NewSyncService(
	stores ports.StoreRepository,
	customers ports.CustomerRepository,
	orders ports.OrderRepository,
	commerce ports.CommerceClient,
	status ports.SyncStatusStore,
	m *metrics.Metrics,
	retryCfg retry.Config,
	logger zerolog.Logger,
) *SyncService {
	return &SyncService{
		stores:    stores,
		customers: customers,
		orders:    orders,
		commerce:  commerce,
		status:    status,
		metrics:   m,
		retryCfg:  retryCfg,
		logger:    logger,
	}
}

// ResolveStore finds the sync target: the given store id, or the first
// store in storage when none is supplied. Absence of a store is an error,
// never an empty sync.
func (s *SyncService) ResolveStore(ctx context.Context, storeID string) (*domain.Store, error) {
	return resolveStore(ctx, s.logger, s.retryCfg, s.stores, storeID)
}

// RunAndWait executes a full reconciliation synchronously.
func (s *SyncService) RunAndWait(ctx context.Context, store *domain.Store) (*domain.SyncReport, error) {
	return s.run(ctx, store, "wait")
}

// RunBackground starts a fire-and-forget reconciliation. The caller gets
// the run id immediately; progress is published to the status store and
// failures are logged, never surfaced.
func (s *SyncService) RunBackground(store *domain.Store) string {
	runID := uuid.NewString()
	started := &domain.SyncStatus{
		StoreID:   store.ID,
		RunID:     runID,
		State:     domain.SyncStateRunning,
		StartedAt: time.Now().UTC(),
	}

	go func() {
		// Detached from the request context: once started, a background
		// run is not cancellable.
		ctx := context.Background()

		if err := s.status.Set(ctx, started); err != nil {
			s.logger.Warn().Err(err).Str("store", store.Shop).Msg("Failed to record sync start")
		}

		report, err := s.run(ctx, store, "background")
		finished := time.Now().UTC()
		status := &domain.SyncStatus{
			StoreID:    store.ID,
			RunID:      runID,
			StartedAt:  started.StartedAt,
			FinishedAt: &finished,
			Report:     report,
		}
		if err != nil {
			status.State = domain.SyncStateFailed
			status.Error = err.Error()
			s.logger.Error().Err(err).Str("store", store.Shop).Str("runId", runID).Msg("Background sync failed")
		} else {
			status.State = domain.SyncStateCompleted
		}
		if err := s.status.Set(ctx, status); err != nil {
			s.logger.Warn().Err(err).Str("store", store.Shop).Msg("Failed to record sync result")
		}
	}()

	return runID
}

// Status returns the latest recorded run for the store.
func (s *SyncService) Status(ctx context.Context, storeID string) (*domain.SyncStatus, error) {
	return s.status.Get(ctx, storeID)
}

func (s *SyncService) run(ctx context.Context, store *domain.Store, mode string) (*domain.SyncReport, error) {
	start := time.Now()
	report, err := s.reconcile(ctx, store)
	s.metrics.SyncDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.SyncRuns.WithLabelValues(mode, "error").Inc()
		return nil, err
	}
	s.metrics.SyncRuns.WithLabelValues(mode, "ok").Inc()
	return report, nil
}

// reconcile runs the five-step merge: concurrent fetch, chunked
// skip-duplicate customer insert, id-map read, chunked skip-duplicate
// order insert with customer links resolved through the map, prices kept
// as strings throughout.
func (s *SyncService) reconcile(ctx context.Context, store *domain.Store) (*domain.SyncReport, error) {
	s.logger.Info().Str("store", store.Shop).Msg("Starting historical data sync")

	var (
		remoteCustomers []domain.RemoteCustomer
		remoteOrders    []domain.RemoteOrder
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		remoteCustomers, err = s.commerce.FetchCustomers(gctx, store.Shop, store.AccessToken)
		s.countFetch("customers", err)
		return err
	})
	g.Go(func() error {
		var err error
		remoteOrders, err = s.commerce.FetchOrders(gctx, store.Shop, store.AccessToken)
		s.countFetch("orders", err)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &domain.SyncReport{
		CustomersFetched: len(remoteCustomers),
		OrdersFetched:    len(remoteOrders),
	}
	s.logger.Info().
		Str("store", store.Shop).
		Int("customers", len(remoteCustomers)).
		Int("orders", len(remoteOrders)).
		Msg("Fetched remote collections")

	customerRows := make([]*domain.Customer, 0, len(remoteCustomers))
	for _, rc := range remoteCustomers {
		customerRows = append(customerRows, &domain.Customer{
			ShopifyID: rc.ID.String(),
			Email:     rc.Email,
			FirstName: rc.FirstName,
			LastName:  rc.LastName,
			StoreID:   store.ID,
		})
	}
	var customerChunkErr error
	chunked(customerRows, syncChunkSize)(func(chunk []*domain.Customer) bool {
		inserted, err := retry.Do(ctx, s.logger, "customer.insertMany", s.retryCfg, func(ctx context.Context) (int, error) {
			return s.customers.InsertManySkipDuplicates(ctx, chunk)
		})
		if err != nil {
			customerChunkErr = err
			return false
		}
		report.CustomersInserted += inserted
		return true
	})
	if customerChunkErr != nil {
		return nil, customerChunkErr
	}
	s.metrics.RecordsSynced.WithLabelValues("customer", "inserted").Add(float64(report.CustomersInserted))

	// Batch inserts do not report local ids and prior runs may already
	// hold customers, so the link map always comes from a fresh read.
	idMap, err := retry.Do(ctx, s.logger, "customer.mapIds", s.retryCfg, func(ctx context.Context) (map[string]string, error) {
		return s.customers.MapShopifyIDs(ctx, store.ID)
	})
	if err != nil {
		return nil, err
	}

	orderRows := make([]*domain.Order, 0, len(remoteOrders))
	for _, ro := range remoteOrders {
		row := &domain.Order{
			ShopifyID:         ro.ID.String(),
			OrderNumber:       ro.Name,
			TotalPrice:        priceOrZero(ro.TotalPrice),
			Currency:          ro.Currency,
			FinancialStatus:   ro.FinancialStatus,
			FulfillmentStatus: ro.FulfillmentStatus,
			ProcessedAt:       ro.ProcessedAt,
			StoreID:           store.ID,
		}
		if ro.Customer != nil {
			// Unknown references fall back to a null link; the order is
			// kept either way.
			row.CustomerID = idMap[ro.Customer.ID.String()]
			if row.CustomerID != "" {
				report.OrdersLinked++
			}
		}
		orderRows = append(orderRows, row)
	}
	var orderChunkErr error
	chunked(orderRows, syncChunkSize)(func(chunk []*domain.Order) bool {
		inserted, err := retry.Do(ctx, s.logger, "order.insertMany", s.retryCfg, func(ctx context.Context) (int, error) {
			return s.orders.InsertManySkipDuplicates(ctx, chunk)
		})
		if err != nil {
			orderChunkErr = err
			return false
		}
		report.OrdersInserted += inserted
		return true
	})
	if orderChunkErr != nil {
		return nil, orderChunkErr
	}
	s.metrics.RecordsSynced.WithLabelValues("order", "inserted").Add(float64(report.OrdersInserted))

	s.logger.Info().
		Str("store", store.Shop).
		Int("customersInserted", report.CustomersInserted).
		Int("ordersInserted", report.OrdersInserted).
		Int("ordersLinked", report.OrdersLinked).
		Msg("Sync completed")
	return report, nil
}

func (s *SyncService) countFetch(resource string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.RemoteFetches.WithLabelValues(resource, status).Inc()
}

// priceOrZero keeps the remote price string verbatim, defaulting absent
// values to "0" so aggregation never trips on an empty field.
func priceOrZero(p domain.PriceString) string {
	if p == "" {
		return "0"
	}
	return p.String()
}

// chunked yields the slice in consecutive pieces of at most size.
func chunked[T any](items []T, size int) func(yield func(chunk []T) bool) {
	return func(yield func(chunk []T) bool) {
		for start := 0; start < len(items); start += size {
			end := start + size
			if end > len(items) {
				end = len(items)
			}
			if !yield(items[start:end]) {
				return
			}
		}
	}
}
