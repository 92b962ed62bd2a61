package itemcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// DefaultPrefix is used when every display name in the chain is blank.
const DefaultPrefix = "ITEM"

// CodeLister lists the stored codes starting with prefix + "-".
type CodeLister interface {
	ListCodesWithPrefix(ctx context.Context, prefix string) ([]string, error)
}

// CommitFunc persists an allocated code. It runs while the allocation
// still holds its Serializer slot.
type CommitFunc func(ctx context.Context, code string) error

type Request struct {
	// ItemGroup names the category the code is derived from.
	ItemGroup string
	// ExcludeCode is the item's own current code, if any. It does not
	// count as used when the item is re-coded.
	ExcludeCode string
}

type Allocation struct {
	Prefix string
	Code   string
	// Fallback is set when existing codes could not be listed and the
	// first number of the prefix was returned instead.
	Fallback bool
}

// Allocator resolves a prefix, reads the existing codes for it and picks
// the next free number, in that order.
type Allocator struct {
	resolver   *Resolver
	codes      CodeLister
	serializer Serializer
	metrics    *Metrics
	logger     *slog.Logger
}

type Option func(*Allocator)

// WithSerializer replaces the default NoSerialization.
func WithSerializer(s Serializer) Option {
	return func(a *Allocator) { a.serializer = s }
}

func WithMetrics(m *Metrics) Option {
	return func(a *Allocator) { a.metrics = m }
}

func NewAllocator(resolver *Resolver, codes CodeLister, logger *slog.Logger, opts ...Option) *Allocator {
	a := &Allocator{
		resolver:   resolver,
		codes:      codes,
		serializer: NoSerialization{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.metrics == nil {
		a.metrics = NewMetrics(nil)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Prefix resolves the prefix of the named item group.
func (a *Allocator) Prefix(ctx context.Context, itemGroup string) (string, error) {
	category, err := a.resolver.Lookup.FetchCategory(ctx, itemGroup)
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return "", fmt.Errorf("item group %q: %w", itemGroup, ErrCategoryNotFound)
		}
		return "", fmt.Errorf("fetching item group %q: %w", itemGroup, err)
	}

	prefix, err := a.resolver.ResolvePrefix(ctx, category)
	if err != nil {
		a.metrics.Rejected.Inc()
		return "", err
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix, nil
}

// Preview computes the code an allocation would return right now without
// reserving it.
func (a *Allocator) Preview(ctx context.Context, req Request) (Allocation, error) {
	prefix, err := a.Prefix(ctx, req.ItemGroup)
	if err != nil {
		return Allocation{}, err
	}
	return a.sequence(ctx, prefix, req.ExcludeCode), nil
}

// Allocate picks the next code for req and hands it to commit. An error
// from commit is returned as is.
func (a *Allocator) Allocate(ctx context.Context, req Request, commit CommitFunc) (Allocation, error) {
	prefix, err := a.Prefix(ctx, req.ItemGroup)
	if err != nil {
		a.metrics.Allocations.WithLabelValues("rejected").Inc()
		return Allocation{}, err
	}

	release := a.serializer.Acquire(prefix)
	defer release()

	alloc := a.sequence(ctx, prefix, req.ExcludeCode)
	if err := commit(ctx, alloc.Code); err != nil {
		a.metrics.Allocations.WithLabelValues("commit_failed").Inc()
		return alloc, err
	}

	a.metrics.Allocations.WithLabelValues("committed").Inc()
	a.logger.Info("item code allocated",
		"item_group", req.ItemGroup, "prefix", prefix, "code", alloc.Code, "fallback", alloc.Fallback)
	return alloc, nil
}

func (a *Allocator) sequence(ctx context.Context, prefix, exclude string) Allocation {
	existing, err := a.codes.ListCodesWithPrefix(ctx, prefix)
	if err != nil {
		a.metrics.Fallbacks.Inc()
		a.logger.Warn("listing existing codes failed, using first code of prefix",
			"prefix", prefix, "error", err)
		return Allocation{Prefix: prefix, Code: FormatCode(prefix, 1), Fallback: true}
	}

	if exclude != "" {
		kept := make([]string, 0, len(existing))
		for _, code := range existing {
			if code != exclude {
				kept = append(kept, code)
			}
		}
		existing = kept
	}

	return Allocation{Prefix: prefix, Code: NextCode(prefix, existing)}
}
