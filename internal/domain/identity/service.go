package identity

import (
	"context"
	"time"

	"github.com/lims/lims/internal/domain/accounts"
	"github.com/lims/lims/pkg/laberr"
)

type Service struct {
	patients PatientRepository
}

func NewService(patients PatientRepository) *Service {
	return &Service{patients: patients}
}

// Register validates the patient and allocates the next sequential display
// ID. The repository performs the allocation atomically, so the assigned ID
// on return is authoritative.
func (s *Service) Register(ctx context.Context, actor *accounts.User, p *Patient) error {
	if err := accounts.Authorize(actor, accounts.PermAddPatient); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, actor *accounts.User, id string) (*Patient, error) {
	if err := accounts.Authorize(actor, accounts.PermViewPatients); err != nil {
		return nil, err
	}
	if !ValidPatientID(id) {
		return nil, laberr.NotFound("patient", id)
	}
	return s.patients.GetByID(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, actor *accounts.User, p *Patient) error {
	if err := accounts.Authorize(actor, accounts.PermEditPatient); err != nil {
		return err
	}
	if !ValidPatientID(p.ID) {
		return laberr.NotFound("patient", p.ID)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) DeletePatient(ctx context.Context, actor *accounts.User, id string) error {
	if err := accounts.Authorize(actor, accounts.PermDeletePatient); err != nil {
		return err
	}
	if !ValidPatientID(id) {
		return laberr.NotFound("patient", id)
	}
	return s.patients.Delete(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, actor *accounts.User, limit, offset int) ([]*Patient, int, error) {
	if err := accounts.Authorize(actor, accounts.PermViewPatients); err != nil {
		return nil, 0, err
	}
	return s.patients.List(ctx, limit, offset)
}

// SearchPatients matches patients by case-insensitive name substring.
func (s *Service) SearchPatients(ctx context.Context, actor *accounts.User, name string, limit, offset int) ([]*Patient, int, error) {
	if err := accounts.Authorize(actor, accounts.PermViewPatients); err != nil {
		return nil, 0, err
	}
	if name == "" {
		return s.patients.List(ctx, limit, offset)
	}
	return s.patients.SearchByName(ctx, name, limit, offset)
}

// PatientExists reports whether the given display ID resolves to a
// registered patient. Order intake uses this for reference checks.
func (s *Service) PatientExists(ctx context.Context, id string) (bool, error) {
	if !ValidPatientID(id) {
		return false, nil
	}
	_, err := s.patients.GetByID(ctx, id)
	if laberr.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PatientName resolves a display ID to the patient's name. Used by
// report templating.
func (s *Service) PatientName(ctx context.Context, id string) (string, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return p.Name, nil
}

// CountRegisteredBetween counts patients registered in [from, to). Feeds
// the statistics dashboard.
func (s *Service) CountRegisteredBetween(ctx context.Context, actor *accounts.User, from, to time.Time) (int, error) {
	if err := accounts.Authorize(actor, accounts.PermViewStatistics); err != nil {
		return 0, err
	}
	return s.patients.CountCreatedBetween(ctx, from, to)
}
