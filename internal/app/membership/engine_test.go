package membership

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/guildhall/internal/app/store/audit"
	"github.com/dalemusser/guildhall/internal/app/system/auditlog"
	"github.com/dalemusser/guildhall/internal/app/system/metrics"
	"github.com/dalemusser/guildhall/internal/testutil"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type testEnv struct {
	db       *mongo.Database
	engine   *Engine
	fixtures *testutil.Fixtures
	auditLog *audit.Store
	metrics  *metrics.Metrics

	mu  sync.Mutex
	now time.Time
}

func (env *testEnv) clock() time.Time {
	env.mu.Lock()
	defer env.mu.Unlock()
	return env.now
}

func (env *testEnv) advance(d time.Duration) {
	env.mu.Lock()
	defer env.mu.Unlock()
	env.now = env.now.Add(d)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	env := &testEnv{
		db:       db,
		fixtures: testutil.NewFixtures(t, db),
		auditLog: audit.New(db),
		metrics:  metrics.New(prometheus.NewRegistry()),
		now:      time.Now().UTC().Truncate(time.Millisecond),
	}
	env.engine = New(db, zap.NewNop(),
		WithAuditLogger(auditlog.New(env.auditLog, zap.NewNop(), auditlog.Config{Membership: "db", Privacy: "db"})),
		WithMetrics(env.metrics),
		WithClock(env.clock),
	)
	return env
}

func ctxFor(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)
	return ctx
}

func memberCount(t *testing.T, env *testEnv, ctx context.Context, groupID primitive.ObjectID) int64 {
	t.Helper()
	g, err := env.engine.groups.GetByID(ctx, groupID)
	if err != nil {
		t.Fatalf("load group: %v", err)
	}
	return g.MemberCount
}

func liveCount(t *testing.T, env *testEnv, ctx context.Context, groupID primitive.ObjectID) int64 {
	t.Helper()
	n, err := env.engine.members.CountByGroup(ctx, groupID, "")
	if err != nil {
		t.Fatalf("count memberships: %v", err)
	}
	return n
}

func wantKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
}
