package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/distributed-fraud-detection/fraud-detection/risk-engine/internal/scoring"
	"github.com/distributed-fraud-detection/fraud-detection/shared/events"
	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
	sharedredis "github.com/distributed-fraud-detection/fraud-detection/shared/redis"
	"github.com/distributed-fraud-detection/fraud-detection/shared/utils"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memProfiles struct {
	rows map[string]models.RiskProfile
	err  error
}

func (m *memProfiles) Upsert(_ context.Context, p *models.RiskProfile) error {
	if m.err != nil {
		return m.err
	}
	m.rows[p.UserID] = *p
	return nil
}

type fixture struct {
	mr       *miniredis.Miniredis
	svc      *RiskCommandService
	cache    *sharedredis.RiskContextCache
	counter  *sharedredis.RedisCounter
	profiles *memProfiles
	bus      *events.MemoryBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	counter := sharedredis.NewRedisCounter(client, time.Minute)
	f := &fixture{
		mr:       mr,
		cache:    sharedredis.NewRiskContextCache(client, counter),
		counter:  counter,
		profiles: &memProfiles{rows: map[string]models.RiskProfile{}},
		bus:      events.NewMemoryBus(),
	}
	f.svc = NewRiskCommandService(
		scoring.NewEngine(scoring.DefaultFactors(scoring.DefaultFactorConfig())...),
		f.cache, f.profiles, f.bus,
		sharedredis.NewProcessedMarker(client, "risk-engine"),
		zap.NewNop(),
	)
	return f
}

func created(eventID, txnID, amount, location, merchant string) events.TransactionCreatedEvent {
	return events.TransactionCreatedEvent{
		EventID:       eventID,
		TransactionID: txnID,
		UserID:        "user-1",
		Amount:        decimal.NewNullDecimal(decimal.RequireFromString(amount)),
		Location:      location,
		MerchantType:  merchant,
		Timestamp:     time.Now().UTC(),
	}
}

func lastScored(t *testing.T, bus *events.MemoryBus) events.RiskScoredEvent {
	t.Helper()
	published := bus.Published(events.RiskScored)
	require.NotEmpty(t, published)
	e, err := events.Decode[events.RiskScoredEvent](published[len(published)-1])
	require.NoError(t, err)
	return e
}

func TestHandleTransactionCreated_MediumRisk(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.HandleTransactionCreated(ctx, created("evt-1", "txn-1", "55000", "Lagos", "Crypto Exchange")))

	scored := lastScored(t, f.bus)
	assert.Equal(t, "txn-1", scored.TransactionID)
	assert.Equal(t, 0.60, scored.RiskScore)
	assert.Equal(t, models.RiskMedium, scored.RiskLevel)
	assert.NotEmpty(t, scored.EventID)
	assert.Equal(t, "user-1", f.bus.Published(events.RiskScored)[0].Key)

	score, ok, err := f.cache.RiskScore(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.60, score)

	profile := f.profiles.rows["user-1"]
	assert.Equal(t, models.RiskMedium, profile.RiskLevel)
	assert.Equal(t, "amount", profile.TopRiskFactor)

	hot, err := f.cache.HighRiskTransactions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, hot)
}

func TestHandleTransactionCreated_HighRiskGoesToHotList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.HandleTransactionCreated(ctx, created("evt-1", "txn-hot", "55000", "Offshore", "Crypto Exchange")))

	scored := lastScored(t, f.bus)
	assert.Equal(t, 0.80, scored.RiskScore)
	assert.Equal(t, models.RiskHigh, scored.RiskLevel)

	hot, err := f.cache.HighRiskTransactions(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"txn-hot"}, hot)
}

func TestHandleTransactionCreated_UsesAdmissionCounter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 9; i++ {
		_, err := f.counter.Increment(ctx, sharedredis.TxnCountKey("user-1"))
		require.NoError(t, err)
	}

	require.NoError(t, f.svc.HandleTransactionCreated(ctx, created("evt-1", "txn-1", "500", "Mumbai", "Grocery")))

	scored := lastScored(t, f.bus)
	assert.Equal(t, 0.30, scored.RiskScore)
	assert.Equal(t, 9, f.profiles.rows["user-1"].TransactionFrequency)
}

func TestHandleTransactionCreated_DuplicateDeliverySkipped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := created("evt-1", "txn-1", "500", "Mumbai", "Grocery")

	require.NoError(t, f.svc.HandleTransactionCreated(ctx, e))
	require.NoError(t, f.svc.HandleTransactionCreated(ctx, e))

	assert.Len(t, f.bus.Published(events.RiskScored), 1)
}

func TestHandleTransactionCreated_RedeliveryBeforeMarkKeepsEventID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := created("evt-1", "txn-1", "500", "Mumbai", "Grocery")

	require.NoError(t, f.svc.HandleTransactionCreated(ctx, e))
	// Crash between publish and mark: the marker never lands.
	f.mr.Del("processed:risk-engine:evt-1")
	require.NoError(t, f.svc.HandleTransactionCreated(ctx, e))

	published := f.bus.Published(events.RiskScored)
	require.Len(t, published, 2)
	first, err := events.Decode[events.RiskScoredEvent](published[0])
	require.NoError(t, err)
	second, err := events.Decode[events.RiskScoredEvent](published[1])
	require.NoError(t, err)
	assert.Equal(t, first.EventID, second.EventID)
	assert.Equal(t, utils.DerivedID(events.RiskScored, "txn-1"), first.EventID)
}

func TestHandleFraudDecision_RepublishedBlockCountsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	republish := func() events.FraudDecisionMadeEvent {
		return events.FraudDecisionMadeEvent{
			EventID:       utils.DerivedID(events.FraudDecisionMade, "case-1"),
			CaseID:        "case-1",
			UserID:        "user-1",
			TransactionID: "txn-1",
			Decision:      models.DecisionBlock,
		}
	}
	require.NoError(t, f.svc.HandleFraudDecision(ctx, republish()))
	require.NoError(t, f.svc.HandleFraudDecision(ctx, republish()))

	count, err := f.cache.RecentFraudCount(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestHandleTransactionCreated_ProfileFailureStopsPublish(t *testing.T) {
	f := newFixture(t)
	f.profiles.err = errors.New("pq: deadlock detected")

	err := f.svc.HandleTransactionCreated(context.Background(), created("evt-1", "txn-1", "500", "Mumbai", "Grocery"))
	require.Error(t, err)
	assert.Empty(t, f.bus.Published(events.RiskScored))
}

func TestHandleFraudDecision_BlockFeedsFraudHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	block := events.FraudDecisionMadeEvent{EventID: "dec-1", UserID: "user-1", TransactionID: "txn-1", Decision: models.DecisionBlock}
	require.NoError(t, f.svc.HandleFraudDecision(ctx, block))
	require.NoError(t, f.svc.HandleFraudDecision(ctx, block))
	require.NoError(t, f.svc.HandleFraudDecision(ctx, events.FraudDecisionMadeEvent{
		EventID: "dec-2", UserID: "user-1", TransactionID: "txn-2", Decision: models.DecisionReview,
	}))

	count, err := f.cache.RecentFraudCount(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "only BLOCK counts, once per event")

	require.NoError(t, f.svc.HandleTransactionCreated(ctx, created("evt-9", "txn-9", "500", "Mumbai", "Grocery")))
	assert.Equal(t, 0.20, lastScored(t, f.bus).RiskScore)
}
