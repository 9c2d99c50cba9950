// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okian/pixelrace/internal/adapters/mq/worker"
	"github.com/okian/pixelrace/internal/adapters/repository"
	"github.com/okian/pixelrace/internal/domain/catalog"
	"github.com/okian/pixelrace/internal/domain/dedupe"
	"github.com/okian/pixelrace/internal/domain/garage"
	"github.com/okian/pixelrace/internal/domain/model"
	"github.com/okian/pixelrace/internal/domain/motion"
	"github.com/okian/pixelrace/internal/domain/ranking"
	"github.com/okian/pixelrace/internal/domain/scoring"
	"github.com/okian/pixelrace/internal/domain/session"
	"github.com/okian/pixelrace/pkg/logger"
	"github.com/okian/pixelrace/pkg/metrics"
)

// Purchase kinds, also used as metric labels.
const (
	PurchaseCar  = "car"
	PurchaseSlot = "slot"
)

// View is a session snapshot together with the session's wallet.
type View struct {
	ID string `json:"id"`
	session.Snapshot
	Balance decimal.Decimal `json:"balance"`
}

// Results is the final outcome of a race.
type Results struct {
	ID        string           `json:"id"`
	Tick      int              `json:"tick"`
	ElapsedMS int64            `json:"elapsed_ms"`
	Standings []model.Standing `json:"standings"`
	Player    *model.Standing  `json:"player,omitempty"`
	Balance   decimal.Decimal  `json:"balance"`
}

// Receipt describes a completed purchase. Replays of the same
// idempotency key return the original receipt.
type Receipt struct {
	Kind     string          `json:"kind"`
	CarID    int             `json:"car_id,omitempty"`
	Name     string          `json:"name,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Balance  decimal.Decimal `json:"balance"`
	Slots    int             `json:"slots"`
	Selected bool            `json:"selected"`
	Replayed bool            `json:"replayed"`
}

type entry struct {
	id     string
	runner *worker.Runner
	garage *garage.Garage
}

// Service owns every live race session.
type Service struct {
	mu sync.RWMutex

	// Core components
	sessions  *repository.Store[*entry]
	purchases *dedupe.Deduper[Receipt]
	scorer    *scoring.Scorer
	engine    *ranking.Engine

	// Configuration
	tickInterval     time.Duration
	countdown        time.Duration
	params           motion.Params
	perturbChance    float64
	perturbMagnitude float64
	seed             uint64
	prizes           []int64
	startingBalance  int64
	garageSlots      int
	slotPrice        int64
	maxSessions      int
	queueSize        int
	idempotencySize  int

	// State
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	seeds   atomic.Uint64

	// Logging
	logger logger.Logger
}

// New creates a Service with default settings. Call Start before use.
func New(opts ...Option) *Service {
	s := &Service{
		tickInterval:     200 * time.Millisecond,
		countdown:        3 * time.Second,
		params:           motion.DefaultParams(),
		perturbChance:    motion.DefaultPerturbationChance,
		perturbMagnitude: motion.DefaultPerturbationMagnitude,
		startingBalance:  garage.DefaultStartingBalance,
		garageSlots:      garage.DefaultSlots,
		slotPrice:        garage.DefaultSlotPrice,
		maxSessions:      1000,
		queueSize:        16,
		idempotencySize:  10000,
		logger:           nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components. Session runners live until
// ctx is done or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	if err := s.params.Validate(); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	s.logger.Info(ctx, "starting race service...")

	s.sessions = repository.NewStore[*entry](repository.WithMaxItems(s.maxSessions))
	s.purchases = dedupe.New[Receipt](dedupe.WithMaxSize(s.idempotencySize))
	s.scorer = scoring.New(scoring.WithPrizesFromConfig(s.prizes))
	s.engine = ranking.New(s.scorer, ranking.WithTickInterval(s.tickInterval))
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.started = true
	s.logger.Info(ctx, "race service started",
		logger.Duration("tickInterval", s.tickInterval),
		logger.Duration("countdown", s.countdown),
		logger.Float64("finishThreshold", s.params.FinishThreshold),
		logger.Int("maxSessions", s.maxSessions),
	)

	return nil
}

// Stop closes every session and shuts the service down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping race service...")

	for _, e := range s.sessions.List(ctx) {
		if _, err := s.sessions.Remove(ctx, e.id); err == nil {
			_ = e.runner.Close()
			metrics.SessionClosed()
		}
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "race service stopped")
}

func (s *Service) store() (*repository.Store[*entry], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.sessions, nil
}

func (s *Service) lookup(ctx context.Context, id string) (*entry, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	e, err := store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	return e, nil
}

func (s *Service) sessionSeed() uint64 {
	if s.seed == 0 {
		return 0
	}
	return s.seed + s.seeds.Add(1) - 1
}

// CreateSession opens a session in Selection with a fresh garage.
func (s *Service) CreateSession(ctx context.Context) (View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return View{}, ErrNotStarted
	}

	id := uuid.NewString()
	perturber := motion.NewChancePerturber(s.sessionSeed(), s.perturbChance, s.perturbMagnitude)
	stepper, err := motion.NewStepper(s.params, perturber)
	if err != nil {
		return View{}, fmt.Errorf("create session: %w", err)
	}

	e := &entry{
		id: id,
		garage: garage.New(
			garage.WithStartingBalance(decimal.NewFromInt(s.startingBalance)),
			garage.WithSlots(s.garageSlots),
			garage.WithSlotPrice(decimal.NewFromInt(s.slotPrice)),
		),
	}

	machine := session.New(stepper, s.engine,
		session.WithTickInterval(s.tickInterval),
		session.WithTransitionHook(func(from, to session.State) {
			metrics.RecordTransition(from.String(), to.String())
		}),
	)
	e.runner = worker.NewRunner(id, machine,
		worker.WithTickInterval(s.tickInterval),
		worker.WithCountdown(s.countdown),
		worker.WithQueueSize(s.queueSize),
		worker.WithResultsHook(s.payout(e)),
		worker.WithLogger(s.logger.Named("runner")),
	)

	if err := s.sessions.Add(ctx, id, e); err != nil {
		_ = e.runner.Close()
		return View{}, fmt.Errorf("create session: %w", err)
	}
	e.runner.Start(s.ctx)
	metrics.SessionOpened()

	s.logger.Info(ctx, "session created", logger.String("session", id))
	return s.view(e), nil
}

// payout credits the player's prize once the race is over.
func (s *Service) payout(e *entry) func(ctx context.Context, snap session.Snapshot) {
	return func(ctx context.Context, snap session.Snapshot) {
		player, ok := ranking.Player(snap.Standings)
		if !ok || !player.Prize.IsPositive() {
			return
		}
		balance := e.garage.Credit(player.Prize)
		metrics.RecordPrizePaid(player.Prize.InexactFloat64())
		s.logger.Info(ctx, "prize paid",
			logger.String("session", e.id),
			logger.Int("rank", player.Rank),
			logger.String("prize", player.Prize.String()),
			logger.String("balance", balance.String()),
		)
	}
}

// CloseSession stops the session's clock and forgets it.
func (s *Service) CloseSession(ctx context.Context, id string) error {
	store, err := s.store()
	if err != nil {
		return err
	}
	e, err := store.Remove(ctx, id)
	if err != nil {
		return fmt.Errorf("session %s: %w", id, err)
	}
	_ = e.runner.Close()
	metrics.SessionClosed()
	s.logger.Info(ctx, "session closed", logger.String("session", id))
	return nil
}

// Session returns the latest snapshot of a session.
func (s *Service) Session(ctx context.Context, id string) (View, error) {
	e, err := s.lookup(ctx, id)
	if err != nil {
		return View{}, err
	}
	return s.view(e), nil
}

// Sessions lists every live session in creation order.
func (s *Service) Sessions(ctx context.Context) ([]View, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	entries := store.List(ctx)
	out := make([]View, 0, len(entries))
	for _, e := range entries {
		out = append(out, s.view(e))
	}
	return out, nil
}

func (s *Service) view(e *entry) View {
	return View{ID: e.id, Snapshot: e.runner.Snapshot(), Balance: e.garage.Balance()}
}

// SelectCar chooses an owned car for the next race. A renamed car races
// under its nickname.
func (s *Service) SelectCar(ctx context.Context, id string, carID int) (View, error) {
	e, err := s.lookup(ctx, id)
	if err != nil {
		return View{}, err
	}
	owned, err := e.garage.Owned(carID)
	if err != nil {
		return View{}, err
	}
	if err := s.submit(ctx, e, worker.Command{Kind: worker.SelectCar, Car: owned.RacingCar()}); err != nil {
		return View{}, err
	}
	return s.view(e), nil
}

// StartRace moves the session from Selection to Racing.
func (s *Service) StartRace(ctx context.Context, id string) (View, error) {
	e, err := s.lookup(ctx, id)
	if err != nil {
		return View{}, err
	}
	if err := s.submit(ctx, e, worker.Command{Kind: worker.Start}); err != nil {
		return View{}, err
	}
	return s.view(e), nil
}

// Restart moves the session from Results back to Selection.
func (s *Service) Restart(ctx context.Context, id string) (View, error) {
	e, err := s.lookup(ctx, id)
	if err != nil {
		return View{}, err
	}
	if err := s.submit(ctx, e, worker.Command{Kind: worker.Restart}); err != nil {
		return View{}, err
	}
	return s.view(e), nil
}

func (s *Service) submit(ctx context.Context, e *entry, cmd worker.Command) error {
	err := e.runner.Submit(ctx, cmd)
	if errors.Is(err, model.ErrInvariant) {
		s.logger.Error(ctx, "race invariant violated",
			logger.String("session", e.id),
			logger.String("command", cmd.Kind.String()),
			logger.Error(err),
		)
	}
	return err
}

// Standings returns the standings of the latest tick.
func (s *Service) Standings(ctx context.Context, id string) ([]model.Standing, error) {
	e, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.runner.Snapshot().Standings, nil
}

// Results returns the final standings. It fails with
// session.ErrResultsNotReady until the race is over.
func (s *Service) Results(ctx context.Context, id string) (Results, error) {
	e, err := s.lookup(ctx, id)
	if err != nil {
		return Results{}, err
	}
	snap := e.runner.Snapshot()
	if snap.State != session.Results {
		return Results{}, session.ErrResultsNotReady
	}

	res := Results{
		ID:        id,
		Tick:      snap.Tick,
		ElapsedMS: snap.ElapsedMS,
		Standings: snap.Standings,
		Balance:   e.garage.Balance(),
	}
	if player, ok := ranking.Player(snap.Standings); ok {
		res.Player = &player
	}
	return res, nil
}

// Subscribe streams the session's snapshots. The returned func must be
// called to release the subscription.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan session.Snapshot, func(), error) {
	e, err := s.lookup(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := e.runner.Subscribe()
	return ch, cancel, nil
}

// Cars returns the starter and dealership cars.
func (s *Service) Cars() []model.Car {
	return catalog.All()
}

// Dealership returns the cars for sale.
func (s *Service) Dealership() []model.Car {
	return catalog.Dealership()
}

// Garage returns the wallet and owned cars of a session.
func (s *Service) Garage(ctx context.Context, id string) (garage.View, error) {
	e, err := s.lookup(ctx, id)
	if err != nil {
		return garage.View{}, err
	}
	return e.garage.View(), nil
}

// Purchase buys a dealership car. The car is selected right away when
// the session is choosing. A repeated idempotency key replays the first
// receipt without charging again.
func (s *Service) Purchase(ctx context.Context, id string, carID int, key string) (Receipt, error) {
	e, err := s.lookup(ctx, id)
	if err != nil {
		return Receipt{}, err
	}
	car, err := catalog.Find(carID)
	if err != nil {
		return Receipt{}, err
	}

	receipt, replayed, err := s.purchases.Do(ctx, dedupeKey(id, key), func() (Receipt, error) {
		owned, err := e.garage.Buy(car)
		if err != nil {
			metrics.RecordPurchase(PurchaseCar, purchaseOutcome(err))
			return Receipt{}, err
		}
		metrics.RecordPurchase(PurchaseCar, "ok")

		r := Receipt{
			Kind:    PurchaseCar,
			CarID:   owned.ID,
			Name:    owned.Name,
			Price:   owned.Price,
			Balance: e.garage.Balance(),
			Slots:   e.garage.View().Slots,
		}
		if e.runner.Snapshot().State == session.Selection {
			r.Selected = e.runner.Submit(ctx, worker.Command{Kind: worker.SelectCar, Car: owned.RacingCar()}) == nil
		}
		s.logger.Info(ctx, "car purchased",
			logger.String("session", id),
			logger.Int("car", owned.ID),
			logger.String("balance", r.Balance.String()),
		)
		return r, nil
	})
	if err != nil {
		return Receipt{}, err
	}
	receipt.Replayed = replayed
	return receipt, nil
}

// BuySlot adds one garage slot. It honors idempotency keys like Purchase.
func (s *Service) BuySlot(ctx context.Context, id string, key string) (Receipt, error) {
	e, err := s.lookup(ctx, id)
	if err != nil {
		return Receipt{}, err
	}

	receipt, replayed, err := s.purchases.Do(ctx, dedupeKey(id, key), func() (Receipt, error) {
		slots, err := e.garage.BuySlot()
		if err != nil {
			metrics.RecordPurchase(PurchaseSlot, purchaseOutcome(err))
			return Receipt{}, err
		}
		metrics.RecordPurchase(PurchaseSlot, "ok")
		return Receipt{
			Kind:    PurchaseSlot,
			Price:   decimal.NewFromInt(s.slotPrice),
			Balance: e.garage.Balance(),
			Slots:   slots,
		}, nil
	})
	if err != nil {
		return Receipt{}, err
	}
	receipt.Replayed = replayed
	return receipt, nil
}

// RenameCar gives an owned car a nickname. An empty name restores the
// catalog name.
func (s *Service) RenameCar(ctx context.Context, id string, carID int, name string) (garage.OwnedCar, error) {
	e, err := s.lookup(ctx, id)
	if err != nil {
		return garage.OwnedCar{}, err
	}
	owned, err := e.garage.Rename(carID, name)
	if err != nil {
		return garage.OwnedCar{}, err
	}
	s.reselect(ctx, e, owned)
	return owned, nil
}

// SetDecal sets the custom decal of an owned car.
func (s *Service) SetDecal(ctx context.Context, id string, carID int, decal string) (garage.OwnedCar, error) {
	e, err := s.lookup(ctx, id)
	if err != nil {
		return garage.OwnedCar{}, err
	}
	return e.garage.SetDecal(carID, decal)
}

// reselect refreshes the chosen car after a rename so the next race
// uses the new name.
func (s *Service) reselect(ctx context.Context, e *entry, owned garage.OwnedCar) {
	snap := e.runner.Snapshot()
	if snap.State != session.Selection || snap.Car == nil || snap.Car.ID != owned.ID {
		return
	}
	if err := e.runner.Submit(ctx, worker.Command{Kind: worker.SelectCar, Car: owned.RacingCar()}); err != nil {
		s.logger.Debug(ctx, "could not refresh renamed car",
			logger.String("session", e.id),
			logger.Error(err),
		)
	}
}

func dedupeKey(id, key string) string {
	if key == "" {
		return ""
	}
	return id + ":" + key
}

func purchaseOutcome(err error) string {
	switch {
	case errors.Is(err, garage.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, garage.ErrAlreadyOwned):
		return "already_owned"
	case errors.Is(err, garage.ErrGarageFull):
		return "garage_full"
	default:
		return "error"
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"tickIntervalMs": s.tickInterval.Milliseconds(),
		"countdownMs":    s.countdown.Milliseconds(),
		"maxSessions":    s.maxSessions,
		"queueSize":      s.queueSize,
	}

	if s.started {
		ctx := context.Background()
		counts := map[string]int{}
		subscribers := 0
		for _, e := range s.sessions.List(ctx) {
			counts[e.runner.Snapshot().State.String()]++
			subscribers += e.runner.Subscribers()
		}
		stats["sessions"] = s.sessions.Count(ctx)
		stats["sessionsByState"] = counts
		stats["streamSubscribers"] = subscribers
		stats["idempotencyKeys"] = s.purchases.Size()
	}

	return stats
}
