package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/lims/lims/internal/domain/accounts"
	"github.com/lims/lims/pkg/laberr"
)

type Service struct {
	types TestTypeRepository
}

func NewService(types TestTypeRepository) *Service {
	return &Service{types: types}
}

// AddTestType is the fast-add path: the repository allocates the next
// 3-digit sequential display ID.
func (s *Service) AddTestType(ctx context.Context, actor *accounts.User, t *TestType) error {
	if err := accounts.Authorize(actor, accounts.PermAddTest); err != nil {
		return err
	}
	if err := t.Validate(); err != nil {
		return err
	}
	return s.types.CreateSequential(ctx, t)
}

// AddLegacyTestType stores an entry under a fresh opaque ID. Kept for
// imports of older catalogs whose entries were never renumbered.
func (s *Service) AddLegacyTestType(ctx context.Context, actor *accounts.User, t *TestType) error {
	if err := accounts.Authorize(actor, accounts.PermAddTest); err != nil {
		return err
	}
	if err := t.Validate(); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	id, err := ParseTestTypeID(t.ID)
	if err != nil {
		return err
	}
	if id.IsSequential() {
		return laberr.Validation("id", "3-digit ids are reserved for the fast-add path")
	}
	return s.types.CreateLegacy(ctx, t)
}

// Lookup resolves a raw identifier against both ID schemes: an exact
// sequential match wins, otherwise the query is treated as a legacy ID
// prefix.
func (s *Service) Lookup(ctx context.Context, actor *accounts.User, raw string) (*TestType, error) {
	if err := accounts.Authorize(actor, accounts.PermViewTests); err != nil {
		return nil, err
	}
	id, err := ParseTestTypeID(raw)
	if err != nil {
		return nil, err
	}
	if id.IsSequential() {
		return s.types.GetByID(ctx, id.String())
	}
	t, err := s.types.GetByID(ctx, raw)
	if laberr.IsNotFound(err) {
		return s.types.FindByIDPrefix(ctx, raw)
	}
	return t, err
}

func (s *Service) GetTestType(ctx context.Context, actor *accounts.User, id string) (*TestType, error) {
	if err := accounts.Authorize(actor, accounts.PermViewTests); err != nil {
		return nil, err
	}
	return s.types.GetByID(ctx, id)
}

func (s *Service) UpdateTestType(ctx context.Context, actor *accounts.User, t *TestType) error {
	if err := accounts.Authorize(actor, accounts.PermEditTest); err != nil {
		return err
	}
	if err := t.Validate(); err != nil {
		return err
	}
	return s.types.Update(ctx, t)
}

func (s *Service) DeleteTestType(ctx context.Context, actor *accounts.User, id string) error {
	if err := accounts.Authorize(actor, accounts.PermDeleteTest); err != nil {
		return err
	}
	return s.types.Delete(ctx, id)
}

func (s *Service) ListTestTypes(ctx context.Context, actor *accounts.User, limit, offset int) ([]*TestType, int, error) {
	if err := accounts.Authorize(actor, accounts.PermViewTests); err != nil {
		return nil, 0, err
	}
	return s.types.List(ctx, limit, offset)
}

// TestTypeExists reports whether an identifier resolves under either
// scheme. Order intake uses this for reference checks.
func (s *Service) TestTypeExists(ctx context.Context, id string) (bool, error) {
	_, err := s.types.GetByID(ctx, id)
	if laberr.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// TestTypeName resolves an identifier to the entry's name. Used by
// report templating.
func (s *Service) TestTypeName(ctx context.Context, id string) (string, error) {
	t, err := s.types.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return t.Name, nil
}

// Seed inserts the starter catalog entries that are not present yet,
// matched by name. Used by the seed command; idempotent.
func (s *Service) Seed(ctx context.Context, entries []*TestType) (int, error) {
	existing, _, err := s.types.List(ctx, int(MaxSeqNumber), 0)
	if err != nil {
		return 0, err
	}
	byName := make(map[string]bool, len(existing))
	for _, t := range existing {
		byName[t.Name] = true
	}
	added := 0
	for _, t := range entries {
		if byName[t.Name] {
			continue
		}
		if err := t.Validate(); err != nil {
			return added, err
		}
		if err := s.types.CreateSequential(ctx, t); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}
