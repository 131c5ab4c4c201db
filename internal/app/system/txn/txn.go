// internal/app/system/txn/txn.go
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrRequired is returned by RunRequired when the deployment cannot run
// multi-document transactions (standalone mongod, some managed tiers).
var ErrRequired = errors.New("transactions are required but not supported by this MongoDB deployment")

// Run executes fn inside a multi-document transaction. When the deployment
// does not support transactions, fn is executed once without one and a
// warning is logged. Unique indexes still guard the invariants in that mode;
// cross-collection atomicity does not hold.
//
// fn may be retried by the driver on transient errors, so it must not have
// side effects outside the database.
func Run(ctx context.Context, db *mongo.Database, logger *zap.Logger, fn func(ctx context.Context) error) error {
	return run(ctx, db, logger, false, fn)
}

// RunRequired is like Run but fails with ErrRequired instead of falling back.
func RunRequired(ctx context.Context, db *mongo.Database, logger *zap.Logger, fn func(ctx context.Context) error) error {
	return run(ctx, db, logger, true, fn)
}

func run(ctx context.Context, db *mongo.Database, logger *zap.Logger, required bool, fn func(ctx context.Context) error) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	sess, err := db.Client().StartSession()
	if err != nil {
		return fallback(ctx, logger, required, err, fn)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		return fallback(ctx, logger, required, err, fn)
	}
	return err
}

func fallback(ctx context.Context, logger *zap.Logger, required bool, cause error, fn func(ctx context.Context) error) error {
	if required {
		return errors.Join(ErrRequired, cause)
	}
	logger.Warn("transactions not supported; running without one", zap.Error(cause))
	return fn(ctx)
}

var notSupportedCodes = map[int32]bool{
	20:  true, // IllegalOperation
	51:  true, // standalone / no replica set
	263: true, // OperationNotSupportedInTransaction
}

var notSupportedKeywords = []string{
	"transaction",
	"replica set",
	"session",
	"not supported",
	"illegal operation",
}

// IsNotSupported reports whether err means the server cannot run transactions.
// Known command error codes match directly; otherwise the message must mention
// at least two of the telltale keywords.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && notSupportedCodes[ce.Code] {
		return true
	}

	msg := strings.ToLower(err.Error())
	hits := 0
	for _, kw := range notSupportedKeywords {
		if strings.Contains(msg, kw) {
			hits++
		}
	}
	return hits >= 2
}
