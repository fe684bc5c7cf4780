package command

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/distributed-fraud-detection/fraud-detection/fraud-decision-service/internal/rules"
	"github.com/distributed-fraud-detection/fraud-detection/shared/apperrors"
	"github.com/distributed-fraud-detection/fraud-detection/shared/cqrs"
	"github.com/distributed-fraud-detection/fraud-detection/shared/events"
	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memCases struct {
	mu    sync.Mutex
	byID  map[string]*models.FraudCase
	byTxn map[string]string
}

func newMemCases() *memCases {
	return &memCases{byID: map[string]*models.FraudCase{}, byTxn: map[string]string{}}
}

func (m *memCases) Create(_ context.Context, fc *models.FraudCase) (*models.FraudCase, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byTxn[fc.TransactionID]; ok {
		cp := *m.byID[id]
		return &cp, false, nil
	}
	cp := *fc
	m.byID[fc.CaseID] = &cp
	m.byTxn[fc.TransactionID] = fc.CaseID
	out := cp
	return &out, true, nil
}

func (m *memCases) Review(_ context.Context, caseID string, status models.CaseStatus, reviewedBy string, at time.Time) (*models.FraudCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fc, ok := m.byID[caseID]
	if !ok {
		return nil, apperrors.NotFound("fraud case", caseID)
	}
	if fc.Status != models.CasePending {
		return nil, apperrors.InvalidTransition("fraud case", caseID, string(fc.Status), string(status))
	}
	fc.Status = status
	fc.ReviewedBy = &reviewedBy
	fc.UpdatedAt = at
	cp := *fc
	return &cp, nil
}

type memCaseCache struct {
	cached  map[string]models.FraudCase
	evicted []string
}

func newMemCaseCache() *memCaseCache {
	return &memCaseCache{cached: map[string]models.FraudCase{}}
}

func (m *memCaseCache) CacheCase(_ context.Context, fc *models.FraudCase) { m.cached[fc.CaseID] = *fc }
func (m *memCaseCache) EvictCase(_ context.Context, id string)            { m.evicted = append(m.evicted, id) }

type memProcessed struct {
	seen map[string]bool
}

func (m *memProcessed) IsProcessed(_ context.Context, id string) bool { return m.seen[id] }
func (m *memProcessed) MarkProcessed(_ context.Context, id string) error {
	m.seen[id] = true
	return nil
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, string, any) error {
	return errors.New("redis down")
}

type harness struct {
	svc       *DecisionCommandService
	cases     *memCases
	cache     *memCaseCache
	bus       *events.MemoryBus
	processed *memProcessed
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		cases:     newMemCases(),
		cache:     newMemCaseCache(),
		bus:       events.NewMemoryBus(),
		processed: &memProcessed{seen: map[string]bool{}},
	}
	h.svc = NewDecisionCommandService(
		rules.DefaultChain(rules.DefaultBlockThreshold, rules.DefaultReviewThreshold),
		h.cases, h.cache, h.bus, h.processed, zap.NewNop(),
	)
	return h
}

func scored(eventID, txnID string, score float64) events.RiskScoredEvent {
	return events.RiskScoredEvent{
		EventID:       eventID,
		TransactionID: txnID,
		UserID:        "user-1",
		RiskScore:     score,
		RiskLevel:     models.RiskMedium,
		ScoredAt:      time.Now().UTC(),
	}
}

func decisionsPublished(t *testing.T, bus *events.MemoryBus) []events.FraudDecisionMadeEvent {
	t.Helper()
	var out []events.FraudDecisionMadeEvent
	for _, e := range bus.Published(events.FraudDecisionMade) {
		d, err := events.Decode[events.FraudDecisionMadeEvent](e)
		require.NoError(t, err)
		out = append(out, d)
	}
	return out
}

func TestHandleRiskScored_ReviewCreatesPendingCase(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.svc.HandleRiskScored(context.Background(), scored("evt-1", "txn-1", 0.60)))

	published := decisionsPublished(t, h.bus)
	require.Len(t, published, 1)
	assert.Equal(t, models.DecisionReview, published[0].Decision)
	require.NotNil(t, published[0].FlagReason)
	assert.Equal(t, "Risk score 0.6000 requires manual REVIEW (0.60-0.80 range)", *published[0].FlagReason)

	fc := h.cases.byID[published[0].CaseID]
	require.NotNil(t, fc)
	assert.Equal(t, models.CasePending, fc.Status)
	assert.Contains(t, h.cache.cached, fc.CaseID)
	assert.True(t, h.processed.seen["evt-1"])
}

func TestHandleRiskScored_Outcomes(t *testing.T) {
	tests := []struct {
		score    float64
		decision models.Decision
		status   models.CaseStatus
	}{
		{0.85, models.DecisionBlock, models.CaseBlocked},
		{0.80, models.DecisionReview, models.CasePending},
		{0.15, models.DecisionApprove, models.CaseApproved},
	}
	for _, tt := range tests {
		h := newHarness(t)
		require.NoError(t, h.svc.HandleRiskScored(context.Background(), scored("evt", "txn", tt.score)))

		published := decisionsPublished(t, h.bus)
		require.Len(t, published, 1)
		assert.Equal(t, tt.decision, published[0].Decision, "score %v", tt.score)
		assert.Equal(t, tt.status, h.cases.byID[published[0].CaseID].Status, "score %v", tt.score)
	}
}

func TestHandleRiskScored_SameTransactionKeepsOneCase(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.svc.HandleRiskScored(ctx, scored("evt-1", "txn-1", 0.70)))
	// A second scored event for the same transaction carries a new event id.
	require.NoError(t, h.svc.HandleRiskScored(ctx, scored("evt-2", "txn-1", 0.90)))

	assert.Len(t, h.cases.byID, 1)
	published := decisionsPublished(t, h.bus)
	require.Len(t, published, 2)
	assert.Equal(t, published[0].CaseID, published[1].CaseID)
	assert.Equal(t, published[0].EventID, published[1].EventID, "a republished decision keeps its event id")
	assert.Equal(t, models.DecisionReview, published[1].Decision)
}

func TestHandleRiskScored_DuplicateEventSkipped(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	e := scored("evt-1", "txn-1", 0.70)

	require.NoError(t, h.svc.HandleRiskScored(ctx, e))
	require.NoError(t, h.svc.HandleRiskScored(ctx, e))

	assert.Len(t, decisionsPublished(t, h.bus), 1)
}

func TestHandleRiskScored_PublishFailureIsReturned(t *testing.T) {
	h := newHarness(t)
	h.svc.publisher = failingPublisher{}

	err := h.svc.HandleRiskScored(context.Background(), scored("evt-1", "txn-1", 0.70))
	require.Error(t, err)
	assert.False(t, h.processed.seen["evt-1"])
}

func TestReviewCase(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.svc.HandleRiskScored(ctx, scored("evt-1", "txn-1", 0.70)))
	caseID := decisionsPublished(t, h.bus)[0].CaseID

	_, err := h.svc.ReviewCase(ctx, cqrs.ReviewCaseCommand{CaseID: caseID, Action: "ESCALATE", ReviewedBy: "analyst-1"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	reviewed, err := h.svc.ReviewCase(ctx, cqrs.ReviewCaseCommand{CaseID: caseID, Action: "reject", ReviewedBy: "analyst-1"})
	require.NoError(t, err)
	assert.Equal(t, models.CaseRejected, reviewed.Status)
	assert.Equal(t, []string{caseID}, h.cache.evicted)
	assert.Equal(t, models.CaseRejected, h.cache.cached[caseID].Status)

	_, err = h.svc.ReviewCase(ctx, cqrs.ReviewCaseCommand{CaseID: caseID, Action: "APPROVE", ReviewedBy: "analyst-2"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	_, err = h.svc.ReviewCase(ctx, cqrs.ReviewCaseCommand{CaseID: "missing", Action: "APPROVE", ReviewedBy: "analyst-2"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReviewCase_BlockedCaseIsTerminal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.svc.HandleRiskScored(ctx, scored("evt-1", "txn-1", 0.95)))
	caseID := decisionsPublished(t, h.bus)[0].CaseID

	_, err := h.svc.ReviewCase(ctx, cqrs.ReviewCaseCommand{CaseID: caseID, Action: "APPROVE", ReviewedBy: "analyst-1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}
