// Package rpc is a gRPC-backed transport.Transport. It mirrors the
// connection-lifecycle shape of the teacher's network/client gRPC
// wrappers (discoveryClient, syncPeerClient): an atomic closed flag guards
// Close against double-close, and a finalizer warns if a client is
// garbage-collected without being closed.
package rpc

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/dogechain-lab/docwriter/transport"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"go.uber.org/atomic"
	rawgrpc "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	batchWriteMethod       = "/docwriter.rpc.v1.DocumentService/BatchWrite"
	commitMethod           = "/docwriter.rpc.v1.DocumentService/Commit"
	beginTransactionMethod = "/docwriter.rpc.v1.DocumentService/BeginTransaction"
)

type correlationIDKey struct{}

func withCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// ErrClientClosed is returned by any call made after Close.
var ErrClientClosed = fmt.Errorf("rpc: client already closed")

var _ transport.Transport = (*Client)(nil)

// Client is a transport.Transport backed by a single gRPC connection.
type Client struct {
	conn   *rawgrpc.ClientConn
	logger hclog.Logger

	preferTransactions bool

	isClosed          *atomic.Bool
	lastSuccessMillis *atomic.Int64
	haveSuccess       *atomic.Bool
}

// NewClient wraps an established *grpc.ClientConn. preferTransactions
// mirrors the hosting environment's policy flag read by the
// CommitCoordinator (spec.md §4.3); set it true when the connection can be
// silently torn down by an idle infrastructure timeout.
func NewClient(logger hclog.Logger, conn *rawgrpc.ClientConn, preferTransactions bool) *Client {
	c := &Client{
		conn:               conn,
		logger:             logger.Named("rpc-transport"),
		preferTransactions: preferTransactions,
		isClosed:           atomic.NewBool(false),
		lastSuccessMillis:  atomic.NewInt64(0),
		haveSuccess:        atomic.NewBool(false),
	}

	setFinalizer(c)

	return c
}

func setFinalizer(c *Client) {
	runtime.SetFinalizer(c, func(c *Client) {
		if !c.isClosed.Load() {
			c.logger.Error("rpc client garbage collected without being closed")
		}
	})
}

// Close releases the underlying connection. Safe to call more than once;
// subsequent calls return ErrClientClosed.
func (c *Client) Close() error {
	if c.isClosed.CompareAndSwap(false, true) {
		return c.conn.Close()
	}

	return ErrClientClosed
}

func (c *Client) markSuccess() {
	c.lastSuccessMillis.Store(time.Now().UnixMilli())
	c.haveSuccess.Store(true)
}

// PreferTransactions implements transport.Transport.
func (c *Client) PreferTransactions() bool {
	return c.preferTransactions
}

// LastSuccessfulRequestMillis implements transport.Transport.
func (c *Client) LastSuccessfulRequestMillis() (int64, bool) {
	if !c.haveSuccess.Load() {
		return 0, false
	}

	return c.lastSuccessMillis.Load(), true
}

func (c *Client) requestContext(ctx context.Context) context.Context {
	return withCorrelationID(ctx, uuid.NewString())
}

// BatchWrite implements transport.Transport.
func (c *Client) BatchWrite(ctx context.Context, req *transport.BatchWriteRequest) (*transport.BatchWriteResponse, error) {
	if c.isClosed.Load() {
		return nil, ErrClientClosed
	}

	ctx = c.requestContext(ctx)

	reqMsg, err := encodeBatchWriteRequest(req)
	if err != nil {
		return nil, fmt.Errorf("rpc: encode batchWrite request: %w", err)
	}

	respMsg := &structpb.Struct{}

	if err := c.conn.Invoke(ctx, batchWriteMethod, reqMsg, respMsg); err != nil {
		c.logger.Error("batchWrite rpc failed", "err", err, "database", req.Database, "writes", len(req.Writes))

		return nil, err
	}

	c.markSuccess()

	return decodeBatchWriteResponse(respMsg)
}

// Commit implements transport.Transport.
func (c *Client) Commit(ctx context.Context, req *transport.CommitRequest) (*transport.CommitResponse, error) {
	if c.isClosed.Load() {
		return nil, ErrClientClosed
	}

	ctx = c.requestContext(ctx)

	reqMsg, err := encodeCommitRequest(req)
	if err != nil {
		return nil, fmt.Errorf("rpc: encode commit request: %w", err)
	}

	respMsg := &structpb.Struct{}

	if err := c.conn.Invoke(ctx, commitMethod, reqMsg, respMsg); err != nil {
		c.logger.Error("commit rpc failed", "err", err, "database", req.Database, "writes", len(req.Writes))

		return nil, err
	}

	c.markSuccess()

	return decodeCommitResponse(respMsg)
}

// BeginTransaction implements transport.Transport.
func (c *Client) BeginTransaction(
	ctx context.Context,
	req *transport.BeginTransactionRequest,
) (*transport.BeginTransactionResponse, error) {
	if c.isClosed.Load() {
		return nil, ErrClientClosed
	}

	ctx = c.requestContext(ctx)

	reqMsg, err := encodeBeginTransactionRequest(req)
	if err != nil {
		return nil, fmt.Errorf("rpc: encode beginTransaction request: %w", err)
	}

	respMsg := &structpb.Struct{}

	if err := c.conn.Invoke(ctx, beginTransactionMethod, reqMsg, respMsg); err != nil {
		c.logger.Error("beginTransaction rpc failed", "err", err, "database", req.Database)

		return nil, err
	}

	c.markSuccess()

	return decodeBeginTransactionResponse(respMsg)
}
