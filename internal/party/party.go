// Package party validates and manages bill counterparties. A "new party"
// rides through checkout with a nil id; the coordinator creates it upstream
// and substitutes the returned id before the dependent bill call.
package party

import (
	"context"
	"errors"
	"fmt"

	"github.com/ttacon/libphonenumber"

	"posagent/internal/model"
)

var (
	ErrNameRequired  = errors.New("party name is required")
	ErrPhoneRequired = errors.New("party phone is required")
)

// Validator checks pending parties before they are sent upstream.
// region is the ISO 3166-1 default region for national phone formats.
type Validator struct {
	region string
}

func NewValidator(region string) *Validator {
	if region == "" {
		region = "EG"
	}
	return &Validator{region: region}
}

// ValidatePending rejects a new party that is missing its required fields or
// carries a phone number that cannot belong to the configured region.
func (v *Validator) ValidatePending(p model.Party) error {
	if p.Name == "" {
		return ErrNameRequired
	}
	if p.Phone == "" {
		return ErrPhoneRequired
	}
	num, err := libphonenumber.Parse(p.Phone, v.region)
	if err != nil {
		return fmt.Errorf("party phone %q: %w", p.Phone, err)
	}
	if !libphonenumber.IsValidNumber(num) {
		return fmt.Errorf("party phone %q is not a valid number", p.Phone)
	}
	if p.Kind != model.PartyKindCustomer && p.Kind != model.PartyKindSupplier {
		return fmt.Errorf("party type %q is neither customer nor supplier", p.Kind)
	}
	return nil
}

// Upstream is the backend surface party management proxies to.
type Upstream interface {
	CreateParty(ctx context.Context, p model.Party) (*model.Party, error)
	UpdateParty(ctx context.Context, p model.Party) error
	DeleteParty(ctx context.Context, id int64) error
}

// Service proxies party CRUD upstream after local validation.
type Service struct {
	upstream  Upstream
	validator *Validator
}

func NewService(upstream Upstream, validator *Validator) *Service {
	return &Service{upstream: upstream, validator: validator}
}

func (s *Service) Create(ctx context.Context, p model.Party) (*model.Party, error) {
	if err := s.validator.ValidatePending(p); err != nil {
		return nil, err
	}
	return s.upstream.CreateParty(ctx, p)
}

func (s *Service) Update(ctx context.Context, p model.Party) error {
	if p.ID == nil {
		return errors.New("cannot update a party that was never persisted")
	}
	if err := s.validator.ValidatePending(p); err != nil {
		return err
	}
	return s.upstream.UpdateParty(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.upstream.DeleteParty(ctx, id)
}
