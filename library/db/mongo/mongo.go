// Package mongo provides a wrapper for the MongoDB client.
package mongo

import (
	"context"
	"net/url"
	"time"

	"github.com/Laisky/promptbox/library/log"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	mongoLib "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultTimeout      = 30 * time.Second
	healthCheckInterval = 5 * time.Second
	defaultHeartbeat    = 10 * time.Second
)

// DB is the handle every dao receives.
type DB interface {
	Close(ctx context.Context) error
	GetCol(colName string) *mongoLib.Collection
	CurrentDB() *mongoLib.Database
}

// DialInfo defines the MongoDB connection information.
type DialInfo struct {
	Addr,
	DBName,
	User,
	Pwd string
}

type db struct {
	cli      *mongoLib.Client
	dialInfo DialInfo
	cancel   context.CancelFunc
}

// injection points for tests
var (
	connectMongo = func(ctx context.Context, clientOpts *options.ClientOptions) (*mongoLib.Client, error) {
		return mongoLib.Connect(ctx, clientOpts)
	}
	pingMongo = func(ctx context.Context, cli *mongoLib.Client) error {
		return cli.Ping(ctx, readpref.Primary())
	}
	disconnectMongo = func(ctx context.Context, cli *mongoLib.Client) error {
		return cli.Disconnect(ctx)
	}
)

// buildMongoURI builds a MongoDB connection URI from the given dial info.
func buildMongoURI(dialInfo DialInfo) string {
	uri := &url.URL{
		Scheme: "mongodb",
		Host:   dialInfo.Addr,
		Path:   "/" + dialInfo.DBName,
	}
	if dialInfo.User != "" || dialInfo.Pwd != "" {
		uri.User = url.UserPassword(dialInfo.User, dialInfo.Pwd)
	}

	return uri.String()
}

// NewDB creates one long-lived mongo client and relies on
// the driver for pooling and reconnects.
func NewDB(ctx context.Context, dialInfo DialInfo) (DB, error) {
	log.Logger.Info("try to connect to mongodb",
		zap.String("addr", dialInfo.Addr),
		zap.String("db", dialInfo.DBName),
	)

	dialCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(buildMongoURI(dialInfo)).
		SetConnectTimeout(defaultTimeout).
		SetServerSelectionTimeout(defaultTimeout).
		SetSocketTimeout(defaultTimeout).
		SetHeartbeatInterval(defaultHeartbeat).
		SetRetryReads(true).
		SetRetryWrites(true).
		SetMaxPoolSize(100).
		SetMaxConnIdleTime(300 * time.Second)

	cli, err := connectMongo(dialCtx, clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, "connect db")
	}

	// force a first server selection now so failures happen at startup
	if err := pingMongo(dialCtx, cli); err != nil {
		_ = disconnectMongo(context.Background(), cli)
		return nil, errors.Wrap(err, "ping db")
	}

	checkCtx, checkCancel := context.WithCancel(context.Background())
	d := &db{cli: cli, dialInfo: dialInfo, cancel: checkCancel}
	go d.runHealthCheck(checkCtx)

	return d, nil
}

// CurrentDB returns the database named in the dial info.
func (d *db) CurrentDB() *mongoLib.Database {
	return d.cli.Database(d.dialInfo.DBName)
}

// GetCol returns a collection handle by name.
func (d *db) GetCol(colName string) *mongoLib.Collection {
	return d.CurrentDB().Collection(colName)
}

// runHealthCheck only logs when the server is unreachable,
// the driver recovers connections on its own.
func (d *db) runHealthCheck(ctx context.Context) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := pingMongo(pingCtx, d.cli)
		cancel()

		if err != nil {
			log.Logger.Warn("mongodb ping failed (driver will auto-recover)",
				zap.Error(err),
				zap.String("db", d.dialInfo.Addr),
			)
		}
	}
}

// Close stops the health checker and disconnects the client.
func (d *db) Close(ctx context.Context) error {
	if d.cancel != nil {
		d.cancel()
	}

	if ctx == nil {
		ctx = context.Background()
	}
	closeCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return disconnectMongo(closeCtx, d.cli)
}
