package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// ContentType is the media type of a published report.
const ContentType = "application/json"

// Publisher delivers finished reports.
type Publisher interface {
	Publish(ctx context.Context, r Report) error
}

// WriterPublisher streams reports to a writer as one JSON document per line.
type WriterPublisher struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewWriterPublisher returns a publisher writing to w.
func NewWriterPublisher(w io.Writer) *WriterPublisher {
	return &WriterPublisher{enc: json.NewEncoder(w)}
}

// Publish implements Publisher.
func (p *WriterPublisher) Publish(_ context.Context, r Report) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enc.Encode(r); err != nil {
		return fmt.Errorf("encode report %s: %w", r.Proposal.Code, err)
	}
	return nil
}

// ObjectWriter stores a named object, as the S3 store does.
type ObjectWriter interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// ObjectPublisher writes each report to reports/<proposal code>.json.
type ObjectPublisher struct {
	store ObjectWriter
}

// NewObjectPublisher returns a publisher writing through store.
func NewObjectPublisher(store ObjectWriter) *ObjectPublisher {
	return &ObjectPublisher{store: store}
}

// Key returns the object key of the report for a proposal code.
func Key(code string) string { return "reports/" + code + ".json" }

// Publish implements Publisher.
func (p *ObjectPublisher) Publish(ctx context.Context, r Report) error {
	body, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report %s: %w", r.Proposal.Code, err)
	}
	return p.store.Put(ctx, Key(r.Proposal.Code), body, ContentType)
}

var (
	_ Publisher = (*WriterPublisher)(nil)
	_ Publisher = (*ObjectPublisher)(nil)
)
