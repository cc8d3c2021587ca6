package optimistic

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// projection translates tracker-level reads and writes into calls on the
// cache collaborator, applying the compression codec transparently. The
// tracker owns operation records; the projection only owns the materialized
// cache entries it writes on the tracker's behalf.
type projection struct {
	cache   Cache
	codec   codec
	logger  *logrus.Logger
	metrics *metrics
}

func newProjection(cache Cache, codec codec, logger *logrus.Logger, m *metrics) *projection {
	return &projection{cache: cache, codec: codec, logger: logger, metrics: m}
}

// write serializes value, runs it through the codec and stores it with the
// given provenance.
func (p *projection) write(ctx context.Context, key string, value any, source Source) error {
	payload, err := toRawMessage(value)
	if err != nil {
		return fmt.Errorf("serialize value for key %s: %w", key, err)
	}

	encoded, compressed, err := p.codec.Encode(payload)
	if err != nil {
		return err
	}

	item := CachedItem{
		Data:       encoded,
		Timestamp:  nowMillis(),
		Compressed: compressed,
		Source:     source,
	}

	start := time.Now()
	if err := p.cache.SetItem(ctx, key, item); err != nil {
		return fmt.Errorf("write cache key %s: %w", key, err)
	}
	p.metrics.observeCacheOp("write", time.Since(start))
	if compressed {
		p.metrics.incCompressedWrite()
		p.logger.WithFields(logrus.Fields{
			"key":        key,
			"raw_size":   len(payload),
			"compressed": len(encoded),
		}).Debug("compressed cache write")
	}
	return nil
}

// read fetches the item at key and decompresses its data when the stored
// flag says so. Returns (nil, nil) when the key is absent.
func (p *projection) read(ctx context.Context, key string) (*CachedItem, error) {
	start := time.Now()
	item, err := p.cache.Get(ctx, key)
	if err != nil {
		if IsCacheMiss(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache key %s: %w", key, err)
	}
	p.metrics.observeCacheOp("read", time.Since(start))

	data, err := p.codec.Decode(item.Data, item.Compressed)
	if err != nil {
		return nil, fmt.Errorf("read cache key %s: %w", key, err)
	}

	// The backend may hand out its stored pointer; decode into a copy so the
	// stored entry is never rewritten by a read.
	out := item.Clone()
	out.Data = data
	out.Compressed = false
	return out, nil
}

// snapshot fetches the raw stored item without decoding, so a later restore
// puts back byte-identical state. Returns (nil, nil) when absent.
func (p *projection) snapshot(ctx context.Context, key string) (*CachedItem, error) {
	item, err := p.cache.Get(ctx, key)
	if err != nil {
		if IsCacheMiss(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("snapshot cache key %s: %w", key, err)
	}
	return item, nil
}

// restore writes a previously taken snapshot back verbatim, or erases the
// key when the snapshot is nil (the key did not exist before the operation).
func (p *projection) restore(ctx context.Context, key string, prior *CachedItem) error {
	if prior == nil {
		return p.erase(ctx, key)
	}
	if err := p.cache.SetItem(ctx, key, *prior); err != nil {
		return fmt.Errorf("restore cache key %s: %w", key, err)
	}
	return nil
}

// erase removes the key.
func (p *projection) erase(ctx context.Context, key string) error {
	if err := p.cache.Delete(ctx, key); err != nil {
		return fmt.Errorf("erase cache key %s: %w", key, err)
	}
	return nil
}

// toRawMessage converts a Go value into the JSON payload stored in cache.
// json.RawMessage and []byte carrying valid JSON pass through untouched.
func toRawMessage(value any) (json.RawMessage, error) {
	switch v := value.(type) {
	case json.RawMessage:
		return v, nil
	case []byte:
		if json.Valid(v) {
			return json.RawMessage(v), nil
		}
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return data, nil
}
