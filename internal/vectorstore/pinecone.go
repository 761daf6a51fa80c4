package vectorstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"google.golang.org/protobuf/types/known/structpb"
)

// PineconeConfig configures the Pinecone client.
type PineconeConfig struct {
	APIKey    string
	Index     string
	Namespace string
	Cloud     string // Serverless cloud for new indexes, e.g. "aws".
	Region    string // Serverless region for new indexes, e.g. "us-east-1".

	// Host skips the index lookup when the data plane host is known.
	Host string

	ControlURL   string        // Overrides the control plane host.
	ReadyTimeout time.Duration // How long EnsureIndex waits for a new index.
	PollInterval time.Duration
}

// controlPlane is the part of *pinecone.Client used to manage the index.
type controlPlane interface {
	ListIndexes(ctx context.Context) ([]*pinecone.Index, error)
	DescribeIndex(ctx context.Context, name string) (*pinecone.Index, error)
	CreateServerlessIndex(ctx context.Context, in *pinecone.CreateServerlessIndexRequest) (*pinecone.Index, error)
}

// indexConn is the part of *pinecone.IndexConnection used for vectors.
type indexConn interface {
	UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error)
	QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error)
	Close() error
}

// Pinecone stores vectors in a Pinecone serverless index through the
// official Go client: the control plane to find or create the index, an
// index connection for upserts and queries.
type Pinecone struct {
	cfg     PineconeConfig
	control controlPlane
	connect func(host string) (indexConn, error)

	mu   sync.Mutex
	host string
	conn indexConn
}

func NewPinecone(cfg PineconeConfig) (*Pinecone, error) {
	if cfg.Cloud == "" {
		cfg.Cloud = "aws"
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 2 * time.Minute
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}

	client, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey:    cfg.APIKey,
		Host:      cfg.ControlURL,
		SourceTag: "medbot",
	})
	if err != nil {
		return nil, fmt.Errorf("pinecone client: %w", err)
	}

	p := &Pinecone{
		cfg:     cfg,
		control: client,
		host:    cfg.Host,
	}
	p.connect = func(host string) (indexConn, error) {
		return client.Index(pinecone.NewIndexConnParams{Host: host, Namespace: cfg.Namespace})
	}
	return p, nil
}

// EnsureIndex finds the index and creates it with the cosine metric when
// it does not exist, then waits until it reports ready.
func (p *Pinecone) EnsureIndex(ctx context.Context, dimension int) error {
	idx, err := p.lookup(ctx)
	if err != nil {
		return err
	}
	if idx == nil {
		idx, err = p.control.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
			Name:      p.cfg.Index,
			Dimension: int32(dimension),
			Metric:    pinecone.Cosine,
			Cloud:     pinecone.Cloud(p.cfg.Cloud),
			Region:    p.cfg.Region,
		})
		if err != nil {
			return fmt.Errorf("create index %s: %w", p.cfg.Index, err)
		}
	}
	if int(idx.Dimension) != dimension {
		return fmt.Errorf("%w: index %s has dimension %d, embedder produces %d",
			ErrDimension, p.cfg.Index, idx.Dimension, dimension)
	}

	deadline := time.Now().Add(p.cfg.ReadyTimeout)
	for !ready(idx) {
		if time.Now().After(deadline) {
			return fmt.Errorf("index %s not ready after %s", p.cfg.Index, p.cfg.ReadyTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.cfg.PollInterval):
		}
		idx, err = p.control.DescribeIndex(ctx, p.cfg.Index)
		if err != nil {
			return fmt.Errorf("describe index %s: %w", p.cfg.Index, err)
		}
	}

	p.mu.Lock()
	p.host = idx.Host
	p.mu.Unlock()
	return nil
}

// Upsert writes records in one call.
func (p *Pinecone) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	conn, err := p.connection(ctx)
	if err != nil {
		return err
	}

	vectors := make([]*pinecone.Vector, len(records))
	for i, r := range records {
		var md *pinecone.Metadata
		if len(r.Metadata) > 0 {
			md, err = structpb.NewStruct(r.Metadata)
			if err != nil {
				return fmt.Errorf("metadata for %s: %w", r.ID, err)
			}
		}
		vectors[i] = &pinecone.Vector{Id: r.ID, Values: r.Values, Metadata: md}
	}

	if _, err := conn.UpsertVectors(ctx, vectors); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

// Query returns the topK nearest vectors.
func (p *Pinecone) Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]Match, error) {
	conn, err := p.connection(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK),
		IncludeMetadata: includeMetadata,
	})
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	matches := make([]Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m == nil || m.Vector == nil {
			continue
		}
		match := Match{ID: m.Vector.Id, Score: float64(m.Score)}
		if m.Vector.Metadata != nil {
			match.Metadata = m.Vector.Metadata.AsMap()
		}
		matches = append(matches, match)
	}
	return matches, nil
}

// Close closes the index connection, if one was opened.
func (p *Pinecone) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}

// lookup returns nil, nil when the index does not exist.
func (p *Pinecone) lookup(ctx context.Context) (*pinecone.Index, error) {
	indexes, err := p.control.ListIndexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	for _, idx := range indexes {
		if idx != nil && idx.Name == p.cfg.Index {
			return idx, nil
		}
	}
	return nil, nil
}

// connection opens the index connection on first use, looking up the
// host if EnsureIndex has not run.
func (p *Pinecone) connection(ctx context.Context) (indexConn, error) {
	p.mu.Lock()
	conn, host := p.conn, p.host
	p.mu.Unlock()
	if conn != nil {
		return conn, nil
	}

	if host == "" {
		idx, err := p.lookup(ctx)
		if err != nil {
			return nil, err
		}
		if idx == nil {
			return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, p.cfg.Index)
		}
		host = idx.Host
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		return p.conn, nil
	}
	conn, err := p.connect(host)
	if err != nil {
		return nil, fmt.Errorf("connect to index %s: %w", p.cfg.Index, err)
	}
	p.host, p.conn = host, conn
	return conn, nil
}

func ready(idx *pinecone.Index) bool {
	return idx.Status != nil && idx.Status.Ready
}
