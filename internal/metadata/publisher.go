// Package metadata publishes tier descriptor documents to object storage.
// Campaigns reference tier metadata by URI ({baseUri}{tierId}.json); this
// package writes the documents those URIs point at.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fanfare-live/fanfare/internal/domain"
)

// TierDescriptor is the JSON document stored at {baseUri}{tierId}.json.
type TierDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Campaign    string `json:"campaign"`
	Tier        uint8  `json:"tier"`
	Price       string `json:"price"`
	Image       string `json:"image,omitempty"`
}

// Publisher writes tier descriptors through a blob writer. A nil Publisher
// is valid and publishes nothing.
type Publisher struct {
	writer  domain.BlobWriter
	baseURI string
	logger  *slog.Logger
}

// NewPublisher returns a Publisher rooted at baseURI. The object key for a
// tier is the URI path relative to the base.
func NewPublisher(writer domain.BlobWriter, baseURI string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{writer: writer, baseURI: baseURI, logger: logger}
}

// PublishTier uploads the descriptor for one tier. The campaign address is
// namespaced into the key so campaigns never collide.
func (p *Publisher) PublishTier(ctx context.Context, campaign common.Address, desc TierDescriptor) error {
	if p == nil || p.writer == nil {
		return nil
	}

	body, err := json.Marshal(desc)
	if err != nil {
		return fmt.Errorf("metadata: marshal tier %d: %w", desc.Tier, err)
	}

	key := TierKey(campaign, desc.Tier)
	if err := p.writer.Put(ctx, key, bytes.NewReader(body), "application/json"); err != nil {
		return fmt.Errorf("metadata: publish tier %d: %w", desc.Tier, err)
	}

	p.logger.DebugContext(ctx, "metadata: tier descriptor published",
		slog.String("campaign", campaign.Hex()),
		slog.Int("tier", int(desc.Tier)),
		slog.String("key", key),
	)
	return nil
}

// TierKey returns the object key for a campaign tier descriptor.
func TierKey(campaign common.Address, tierID uint8) string {
	return fmt.Sprintf("%s/%d.json", strings.ToLower(campaign.Hex()), tierID)
}

// BaseURI returns the campaign-scoped metadata base URI, ending in "/" so
// that appending "{tierId}.json" yields the full document URI.
func BaseURI(root string, campaign common.Address) string {
	if root != "" && !strings.HasSuffix(root, "/") {
		root += "/"
	}
	return root + strings.ToLower(campaign.Hex()) + "/"
}
