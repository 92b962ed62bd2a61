// Package seed loads item group trees from YAML into Postgres.
package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/lib/pq"
	"gopkg.in/yaml.v3"
)

type Group struct {
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
	Parent      string `yaml:"parent"`
}

type File struct {
	ItemGroups []Group `yaml:"item_groups"`
}

// Load decodes and validates a seed file.
func Load(r io.Reader) (*File, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	seen := make(map[string]bool, len(f.ItemGroups))
	for i, g := range f.ItemGroups {
		if g.Name == "" {
			return nil, fmt.Errorf("item group %d: missing name", i)
		}
		if seen[g.Name] {
			return nil, fmt.Errorf("item group %q: listed twice", g.Name)
		}
		seen[g.Name] = true
		if g.DisplayName == "" {
			f.ItemGroups[i].DisplayName = g.Name
		}
	}
	return &f, nil
}

// Ordered returns the groups with every parent ahead of its children.
// Parents not listed in the file are assumed to exist already.
func (f *File) Ordered() ([]Group, error) {
	byName := make(map[string]Group, len(f.ItemGroups))
	for _, g := range f.ItemGroups {
		byName[g.Name] = g
	}

	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int, len(f.ItemGroups))
	out := make([]Group, 0, len(f.ItemGroups))

	var visit func(g Group) error
	visit = func(g Group) error {
		switch state[g.Name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("item group %q: parent chain loops back to itself", g.Name)
		}
		state[g.Name] = visiting
		if parent, ok := byName[g.Parent]; ok && g.Parent != "" {
			if err := visit(parent); err != nil {
				return err
			}
		}
		state[g.Name] = done
		out = append(out, g)
		return nil
	}

	for _, g := range f.ItemGroups {
		if err := visit(g); err != nil {
			return nil, err
		}
	}
	return out, nil
}

const upsertItemGroup = `
INSERT INTO item_groups (name, display_name, parent_name)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE
SET display_name = EXCLUDED.display_name, parent_name = EXCLUDED.parent_name`

// Apply upserts groups in one transaction, in the given order.
func Apply(ctx context.Context, db *sql.DB, groups []Group, logger *slog.Logger) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertItemGroup)
	if err != nil {
		return describe(err, "prepare upsert")
	}
	defer stmt.Close()

	for _, g := range groups {
		var parent sql.NullString
		if g.Parent != "" {
			parent = sql.NullString{String: g.Parent, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, g.Name, g.DisplayName, parent); err != nil {
			return describe(err, fmt.Sprintf("upsert %q", g.Name))
		}
		logger.Debug("item group seeded", "name", g.Name, "parent", g.Parent)
	}

	if err := tx.Commit(); err != nil {
		return describe(err, "commit")
	}
	logger.Info("item groups seeded", "count", len(groups))
	return nil
}

func describe(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%s: postgres %s: %w", op, pqErr.Code.Name(), err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
