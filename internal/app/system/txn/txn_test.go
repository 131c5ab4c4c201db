package txn

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/guildhall/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unrelated", errors.New("connection reset"), false},
		{"standalone code", mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"}, true},
		{"operation not supported in transaction", mongo.CommandError{Code: 263, Message: "Cannot run in a multi-document transaction"}, true},
		{"duplicate key", mongo.CommandError{Code: 11000, Message: "E11000 duplicate key error"}, false},
		{"keywords", errors.New("Transaction failed: this server is not a REPLICA SET member"), true},
		{"single keyword", errors.New("transaction aborted"), false},
		{"wrapped", errors.Join(errors.New("add membership"), mongo.CommandError{Code: 20}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// supportsTransactions reports whether the test server is a replica set
// member or mongos.
func supportsTransactions(t *testing.T, db *mongo.Database) bool {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	var hello struct {
		SetName string `bson:"setName"`
		Msg     string `bson:"msg"`
	}
	if err := db.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		t.Fatalf("hello: %v", err)
	}
	return hello.SetName != "" || hello.Msg == "isdbgrid"
}

// recorder counts the calls that ran outside a session, which is how the
// fallback invokes fn.
type recorder struct {
	coll *mongo.Collection
	bare int
	err  error
}

func (r *recorder) fn(ctx context.Context) error {
	if mongo.SessionFromContext(ctx) == nil {
		r.bare++
	}
	if _, err := r.coll.InsertOne(ctx, bson.M{"n": 1}); err != nil {
		return err
	}
	return r.err
}

func countDocs(t *testing.T, coll *mongo.Collection) int64 {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestRun_FallsBackOnStandalone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	if supportsTransactions(t, db) {
		t.Skip("server supports transactions")
	}
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := &recorder{coll: db.Collection("txn_runs")}
	if err := Run(ctx, db, zap.NewNop(), rec.fn); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec.bare != 1 {
		t.Errorf("fallback ran fn %d times, want 1", rec.bare)
	}
	if n := countDocs(t, rec.coll); n != 1 {
		t.Errorf("documents = %d, want 1", n)
	}
}

func TestRunRequired_RefusesStandalone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	if supportsTransactions(t, db) {
		t.Skip("server supports transactions")
	}
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := &recorder{coll: db.Collection("txn_runs")}
	err := RunRequired(ctx, db, zap.NewNop(), rec.fn)
	if !errors.Is(err, ErrRequired) {
		t.Fatalf("RunRequired error = %v, want ErrRequired", err)
	}
	if rec.bare != 0 {
		t.Errorf("fn ran %d times without a transaction, want 0", rec.bare)
	}
	if n := countDocs(t, rec.coll); n != 0 {
		t.Errorf("documents = %d, want 0", n)
	}
}

func TestRun_RollsBackOnError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	if !supportsTransactions(t, db) {
		t.Skip("server does not support transactions")
	}
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coll := db.Collection("txn_runs")
	if _, err := coll.InsertOne(ctx, bson.M{"seed": true}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	boom := errors.New("boom")
	rec := &recorder{coll: coll, err: boom}
	if err := RunRequired(ctx, db, zap.NewNop(), rec.fn); !errors.Is(err, boom) {
		t.Fatalf("RunRequired error = %v, want %v", err, boom)
	}
	if rec.bare != 0 {
		t.Errorf("fn ran %d times without a transaction, want 0", rec.bare)
	}
	if n := countDocs(t, coll); n != 1 {
		t.Errorf("documents = %d, want only the seed", n)
	}
}
