package itemcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
)

// DefaultRoot is the top-level item group. It ends an ancestor walk
// without contributing a code segment.
const DefaultRoot = "All Item Groups"

// DefaultMaxDepth bounds the number of ancestors visited per resolution.
const DefaultMaxDepth = 32

var (
	// ErrCategoryNotFound is returned by a CategoryLookup for unknown names.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrMaxDepthExceeded is returned when an ancestor chain is deeper than MaxDepth.
	ErrMaxDepthExceeded = errors.New("category hierarchy exceeds max depth")
	// ErrCategoryCycle is returned when a category is its own ancestor.
	ErrCategoryCycle = errors.New("category hierarchy contains a cycle")
)

// Category is a node of the item group tree.
// Parent is empty for top-level groups.
type Category struct {
	Name        string
	DisplayName string
	Parent      string
}

// CategoryLookup fetches a category by name. Implementations return
// ErrCategoryNotFound when no such category exists. Category trees are
// expected to be acyclic.
type CategoryLookup interface {
	FetchCategory(ctx context.Context, name string) (Category, error)
}

// LocalCode returns the code segment contributed by a single category:
// the display name without white space, upper-cased, cut to two runes.
func LocalCode(displayName string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, displayName)

	runes := []rune(strings.ToUpper(stripped))
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return string(runes)
}

// Resolver derives the hierarchical prefix of a category.
type Resolver struct {
	Lookup   CategoryLookup
	Root     string
	MaxDepth int
	Logger   *slog.Logger
}

// NewResolver returns a Resolver using DefaultRoot and DefaultMaxDepth.
func NewResolver(lookup CategoryLookup, logger *slog.Logger) *Resolver {
	return &Resolver{
		Lookup:   lookup,
		Root:     DefaultRoot,
		MaxDepth: DefaultMaxDepth,
		Logger:   logger,
	}
}

// ResolvePrefix concatenates the local codes of c and its ancestors,
// root-most first. A parent that cannot be fetched ends the walk. The
// only errors returned are ErrMaxDepthExceeded and ErrCategoryCycle.
func (r *Resolver) ResolvePrefix(ctx context.Context, c Category) (string, error) {
	maxDepth := r.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	segments := []string{LocalCode(c.DisplayName)}
	seen := map[string]bool{c.Name: true}
	current := c

	for r.hasParent(current) {
		if len(segments) >= maxDepth {
			return "", fmt.Errorf("%w: %q deeper than %d levels", ErrMaxDepthExceeded, c.Name, maxDepth)
		}
		if seen[current.Parent] {
			return "", fmt.Errorf("%w: %q reached again from %q", ErrCategoryCycle, current.Parent, c.Name)
		}

		parent, err := r.Lookup.FetchCategory(ctx, current.Parent)
		if err != nil {
			if !errors.Is(err, ErrCategoryNotFound) {
				r.logger().Warn("ancestor lookup failed, truncating prefix",
					"category", c.Name, "ancestor", current.Parent, "error", err)
			}
			break
		}

		seen[current.Parent] = true
		segments = append(segments, LocalCode(parent.DisplayName))
		current = parent
	}

	var b strings.Builder
	for i := len(segments) - 1; i >= 0; i-- {
		b.WriteString(segments[i])
	}
	return b.String(), nil
}

func (r *Resolver) hasParent(c Category) bool {
	root := r.Root
	if root == "" {
		root = DefaultRoot
	}
	return c.Parent != "" && c.Parent != root
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
