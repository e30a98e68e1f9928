package service

import (
	"context"
	"time"

	"warchest/events"
	"warchest/models"

	"github.com/stretchr/testify/mock"
)

// MockBattleRepository is a mock implementation of BattleRepository
type MockBattleRepository struct {
	mock.Mock
}

func (m *MockBattleRepository) Create(ctx context.Context, battle *models.Battle) error {
	args := m.Called(ctx, battle)
	return args.Error(0)
}

func (m *MockBattleRepository) GetByID(ctx context.Context, id int64) (*models.Battle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Battle), args.Error(1)
}

func (m *MockBattleRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Battle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Battle), args.Error(1)
}

func (m *MockBattleRepository) Update(ctx context.Context, battle *models.Battle) error {
	args := m.Called(ctx, battle)
	return args.Error(0)
}

func (m *MockBattleRepository) List(ctx context.Context, status *models.BattleStatus) ([]*models.Battle, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Battle), args.Error(1)
}

// MockVaultRepository is a mock implementation of VaultRepository
type MockVaultRepository struct {
	mock.Mock
}

func (m *MockVaultRepository) Create(ctx context.Context, vault *models.Vault) error {
	args := m.Called(ctx, vault)
	return args.Error(0)
}

func (m *MockVaultRepository) Get(ctx context.Context, battleID int64, team models.Team) (*models.Vault, error) {
	args := m.Called(ctx, battleID, team)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vault), args.Error(1)
}

func (m *MockVaultRepository) Update(ctx context.Context, vault *models.Vault) error {
	args := m.Called(ctx, vault)
	return args.Error(0)
}

// MockTicketRepository is a mock implementation of TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) CreateLedger(ctx context.Context, ledger *models.TicketLedger) error {
	args := m.Called(ctx, ledger)
	return args.Error(0)
}

func (m *MockTicketRepository) GetLedger(ctx context.Context, battleID int64, team models.Team) (*models.TicketLedger, error) {
	args := m.Called(ctx, battleID, team)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TicketLedger), args.Error(1)
}

func (m *MockTicketRepository) GetBalance(ctx context.Context, battleID int64, team models.Team, participant string) (int64, error) {
	args := m.Called(ctx, battleID, team, participant)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTicketRepository) Mint(ctx context.Context, battleID int64, team models.Team, participant string, amount int64) error {
	args := m.Called(ctx, battleID, team, participant, amount)
	return args.Error(0)
}

func (m *MockTicketRepository) Burn(ctx context.Context, battleID int64, team models.Team, participant string, amount int64) error {
	args := m.Called(ctx, battleID, team, participant, amount)
	return args.Error(0)
}

// MockPositionRepository is a mock implementation of PositionRepository
type MockPositionRepository struct {
	mock.Mock
}

func (m *MockPositionRepository) Get(ctx context.Context, battleID int64, participant string) (*models.UserPosition, error) {
	args := m.Called(ctx, battleID, participant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPosition), args.Error(1)
}

func (m *MockPositionRepository) Create(ctx context.Context, position *models.UserPosition) error {
	args := m.Called(ctx, position)
	return args.Error(0)
}

func (m *MockPositionRepository) Update(ctx context.Context, position *models.UserPosition) error {
	args := m.Called(ctx, position)
	return args.Error(0)
}

func (m *MockPositionRepository) GetByBattle(ctx context.Context, battleID int64) ([]*models.UserPosition, error) {
	args := m.Called(ctx, battleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserPosition), args.Error(1)
}

// MockPriceRepository is a mock implementation of PriceRepository
type MockPriceRepository struct {
	mock.Mock
}

func (m *MockPriceRepository) Insert(ctx context.Context, quote *models.PriceQuote) error {
	args := m.Called(ctx, quote)
	return args.Error(0)
}

func (m *MockPriceRepository) GetLatest(ctx context.Context, feedRef string) (*models.PriceQuote, error) {
	args := m.Called(ctx, feedRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PriceQuote), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// noopPublisher drops events; used when a test does not assert on them
type noopPublisher struct{}

func (noopPublisher) Publish(events.Event) {}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// injected with SetRepositories; Begin/Commit/Rollback go through the
// usual expectation machinery.
type MockUnitOfWork struct {
	mock.Mock

	battleRepo   BattleRepository
	vaultRepo    VaultRepository
	ticketRepo   TicketRepository
	positionRepo PositionRepository
	priceRepo    PriceRepository
	eventBus     EventPublisher
}

// SetRepositories wires the mock repositories this unit of work hands out.
// A nil eventBus gets a publisher that drops events.
func (m *MockUnitOfWork) SetRepositories(
	battle BattleRepository,
	vault VaultRepository,
	ticket TicketRepository,
	position PositionRepository,
	price PriceRepository,
	eventBus EventPublisher,
) {
	m.battleRepo = battle
	m.vaultRepo = vault
	m.ticketRepo = ticket
	m.positionRepo = position
	m.priceRepo = price
	if eventBus == nil {
		eventBus = noopPublisher{}
	}
	m.eventBus = eventBus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) BattleRepository() BattleRepository {
	return m.battleRepo
}

func (m *MockUnitOfWork) VaultRepository() VaultRepository {
	return m.vaultRepo
}

func (m *MockUnitOfWork) TicketRepository() TicketRepository {
	return m.ticketRepo
}

func (m *MockUnitOfWork) PositionRepository() PositionRepository {
	return m.positionRepo
}

func (m *MockUnitOfWork) PriceRepository() PriceRepository {
	return m.priceRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

// MockYieldAdapter is a mock implementation of YieldAdapter
type MockYieldAdapter struct {
	mock.Mock
}

func (m *MockYieldAdapter) Deposit(ctx context.Context, receipt string, amount int64) (string, error) {
	args := m.Called(ctx, receipt, amount)
	return args.String(0), args.Error(1)
}

func (m *MockYieldAdapter) Withdraw(ctx context.Context, receipt string) (int64, int64, error) {
	args := m.Called(ctx, receipt)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockYieldAdapter) Recall(ctx context.Context, receipt string, amount int64) error {
	args := m.Called(ctx, receipt, amount)
	return args.Error(0)
}

// MockPriceOracle is a mock implementation of PriceOracle
type MockPriceOracle struct {
	mock.Mock
}

func (m *MockPriceOracle) Read(ctx context.Context, feedRef string, maxStaleness time.Duration) (int64, time.Time, error) {
	args := m.Called(ctx, feedRef, maxStaleness)
	return args.Get(0).(int64), args.Get(1).(time.Time), args.Error(2)
}
