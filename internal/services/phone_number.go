package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"fieldops/internal/authz"
	"fieldops/internal/dto"
	"fieldops/internal/entities"
	"fieldops/internal/repositories"
	"fieldops/pkg/config"
	apperrors "fieldops/pkg/errors"
	"fieldops/pkg/types"
	"fieldops/pkg/utils"
)

type PhoneNumberServiceInterface interface {
	GetAll(ctx context.Context, filter types.Filter) ([]dto.PhoneNumberDTO, uint64, error)
	Find(ctx context.Context, id uint64) (*dto.PhoneNumberDTO, error)
	Create(ctx context.Context, session authz.Session, payload dto.CreatePhoneNumberDTO) (*dto.PhoneNumberDTO, error)
	CreateRange(ctx context.Context, session authz.Session, payload dto.CreatePhoneNumberRangeDTO) (*dto.RangeCreatedDTO, error)
	Bind(ctx context.Context, session authz.Session, payload dto.BindPhoneNumbersDTO) (*dto.BatchBoundDTO, error)
	Unbind(ctx context.Context, session authz.Session, id uint64) (*dto.PhoneNumberDTO, error)
	Reserve(ctx context.Context, session authz.Session, id uint64, payload dto.ReservePhoneNumberDTO) (*dto.PhoneNumberDTO, error)
	Release(ctx context.Context, session authz.Session, id uint64) (*dto.PhoneNumberDTO, error)
	ReleaseExpired(ctx context.Context, session authz.Session) (*dto.ReleasedExpiredDTO, error)
}

type PhoneNumberService struct {
	phoneRepo    repositories.PhoneNumberRepositoryInterface
	contractRepo repositories.ContractRepositoryInterface
	txManager    repositories.TxManagerInterface
	defaults     config.PhoneConfig
	logger       *zap.Logger
}

func NewPhoneNumberService(
	phoneRepo repositories.PhoneNumberRepositoryInterface,
	contractRepo repositories.ContractRepositoryInterface,
	txManager repositories.TxManagerInterface,
	defaults config.PhoneConfig,
	logger *zap.Logger,
) PhoneNumberServiceInterface {
	return &PhoneNumberService{
		phoneRepo:    phoneRepo,
		contractRepo: contractRepo,
		txManager:    txManager,
		defaults:     defaults,
		logger:       logger,
	}
}

func (s *PhoneNumberService) GetAll(ctx context.Context, filter types.Filter) ([]dto.PhoneNumberDTO, uint64, error) {
	numbers, total, err := s.phoneRepo.GetAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.PhoneNumberDTO, 0, len(numbers))
	for i := range numbers {
		out = append(out, dto.NewPhoneNumberDTO(&numbers[i]))
	}
	return out, total, nil
}

func (s *PhoneNumberService) Find(ctx context.Context, id uint64) (*dto.PhoneNumberDTO, error) {
	number, err := s.phoneRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := dto.NewPhoneNumberDTO(number)
	return &out, nil
}

func (s *PhoneNumberService) Create(ctx context.Context, session authz.Session, payload dto.CreatePhoneNumberDTO) (*dto.PhoneNumberDTO, error) {
	caps := &session.Caps
	if !caps.PhoneNumber.Add.Allow {
		return nil, apperrors.NewPermissionRefusal("no permission to add phone numbers")
	}
	ddd, prefix, err := s.resolveDDDPrefix(caps, payload.DDD, payload.Prefix)
	if err != nil {
		return nil, err
	}

	number := &entities.PhoneNumber{
		DDD:         ddd,
		Prefix:      prefix,
		Sufix:       payload.Sufix,
		Number:      fmt.Sprintf("%s%s%04d", ddd, prefix, payload.Sufix),
		CityID:      payload.CityID,
		Gold:        payload.Gold,
		Portability: payload.Portability,
	}
	id, err := s.phoneRepo.Create(ctx, number)
	if err != nil {
		return nil, err
	}
	s.logger.Info("phone number created",
		zap.Uint64("id", id), zap.String("number", number.Number),
		zap.Uint64("userID", session.UserID))
	return s.Find(ctx, id)
}

func (s *PhoneNumberService) CreateRange(ctx context.Context, session authz.Session, payload dto.CreatePhoneNumberRangeDTO) (*dto.RangeCreatedDTO, error) {
	caps := &session.Caps
	if !caps.PhoneNumber.Add.Interval {
		return nil, apperrors.NewPermissionRefusal("no permission to add phone number ranges")
	}
	if payload.SufixEnd <= payload.Sufix {
		return nil, apperrors.NewGuardRefusal("sufix_end must be greater than sufix")
	}
	ddd, prefix, err := s.resolveDDDPrefix(caps, payload.DDD, payload.Prefix)
	if err != nil {
		return nil, err
	}

	base := &entities.PhoneNumber{
		DDD:         ddd,
		Prefix:      prefix,
		Sufix:       payload.Sufix,
		CityID:      payload.CityID,
		Portability: payload.Portability,
	}
	created, err := s.phoneRepo.CreateRange(ctx, base, payload.SufixEnd)
	if err != nil {
		return nil, err
	}
	s.logger.Info("phone number range created",
		zap.String("ddd", ddd), zap.String("prefix", prefix),
		zap.Int("sufix", payload.Sufix), zap.Int("sufixEnd", payload.SufixEnd),
		zap.Int64("created", created), zap.Uint64("userID", session.UserID))
	return &dto.RangeCreatedDTO{Created: created}, nil
}

// Bind allocates a batch of numbers to a contract. The batch is
// all-or-nothing: every blocking number is named and nothing binds.
func (s *PhoneNumberService) Bind(ctx context.Context, session authz.Session, payload dto.BindPhoneNumbersDTO) (*dto.BatchBoundDTO, error) {
	caps := &session.Caps
	if !caps.PhoneNumber.Bind.Allow {
		return nil, apperrors.NewPermissionRefusal("no permission to bind phone numbers")
	}

	contract, err := s.contractRepo.FindByID(ctx, payload.ContractID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewGuardRefusal("contract %d does not exist", payload.ContractID)
		}
		return nil, err
	}

	numbers, err := s.phoneRepo.FindByIDs(ctx, payload.NumberIDs)
	if err != nil {
		return nil, err
	}
	if len(numbers) != len(payload.NumberIDs) {
		return nil, apperrors.NewGuardRefusal("some of the requested numbers do not exist")
	}

	var blocked []string
	for i := range numbers {
		n := &numbers[i]
		if ok, reason := n.Bindable(); !ok {
			blocked = append(blocked, fmt.Sprintf("%s: %s", n.Number, reason))
		}
		if n.CityID != contract.CityID && !caps.PhoneNumber.Bind.AnotherCity {
			blocked = append(blocked, fmt.Sprintf("%s: number belongs to another city", n.Number))
		}
	}
	if len(blocked) > 0 {
		return nil, apperrors.NewGuardRefusal("cannot bind: %s", strings.Join(blocked, "; "))
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.phoneRepo.BindMultipleInTx(ctx, tx, contract.ID, payload.NumberIDs, session.UserID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("phone numbers bound",
		zap.Uint64("contractID", contract.ID), zap.Int("count", len(payload.NumberIDs)),
		zap.Uint64("userID", session.UserID))
	return &dto.BatchBoundDTO{ContractID: contract.ID, Bound: len(payload.NumberIDs)}, nil
}

func (s *PhoneNumberService) Unbind(ctx context.Context, session authz.Session, id uint64) (*dto.PhoneNumberDTO, error) {
	if !session.Caps.PhoneNumber.Unbind {
		return nil, apperrors.NewPermissionRefusal("no permission to unbind phone numbers")
	}
	if err := s.phoneRepo.Unbind(ctx, id); err != nil {
		return nil, err
	}
	s.logger.Info("phone number unbound", zap.Uint64("id", id), zap.Uint64("userID", session.UserID))
	return s.Find(ctx, id)
}

func (s *PhoneNumberService) Reserve(ctx context.Context, session authz.Session, id uint64, payload dto.ReservePhoneNumberDTO) (*dto.PhoneNumberDTO, error) {
	if !session.Caps.PhoneNumber.Reserve {
		return nil, apperrors.NewPermissionRefusal("no permission to reserve phone numbers")
	}
	if payload.Days < 1 {
		return nil, apperrors.NewGuardRefusal("reservation must be at least one day")
	}

	until := utils.Today().AddDate(0, 0, payload.Days)
	if err := s.phoneRepo.Reserve(ctx, id, session.UserID, until); err != nil {
		return nil, err
	}
	s.logger.Info("phone number reserved",
		zap.Uint64("id", id), zap.String("until", utils.FormatDate(until)),
		zap.Uint64("userID", session.UserID))
	return s.Find(ctx, id)
}

func (s *PhoneNumberService) Release(ctx context.Context, session authz.Session, id uint64) (*dto.PhoneNumberDTO, error) {
	if !session.Caps.PhoneNumber.Release {
		return nil, apperrors.NewPermissionRefusal("no permission to release phone numbers")
	}
	if err := s.phoneRepo.Release(ctx, id); err != nil {
		return nil, err
	}
	s.logger.Info("phone number released", zap.Uint64("id", id), zap.Uint64("userID", session.UserID))
	return s.Find(ctx, id)
}

// ReleaseExpired frees every reservation past its reserved_until date.
// Invoked explicitly by an administrator, not by a background sweep.
func (s *PhoneNumberService) ReleaseExpired(ctx context.Context, session authz.Session) (*dto.ReleasedExpiredDTO, error) {
	if !session.Caps.PhoneNumber.ReleaseExpired {
		return nil, apperrors.NewPermissionRefusal("no permission to release expired reservations")
	}
	released, err := s.phoneRepo.ReleaseExpired(ctx, utils.Today())
	if err != nil {
		return nil, err
	}
	s.logger.Info("expired reservations released",
		zap.Int64("count", released), zap.Uint64("userID", session.UserID))
	return &dto.ReleasedExpiredDTO{Released: released}, nil
}

// resolveDDDPrefix applies the configured DDD/prefix unless the actor
// may choose their own.
func (s *PhoneNumberService) resolveDDDPrefix(caps *authz.Capabilities, ddd, prefix string) (string, string, error) {
	if caps.PhoneNumber.Add.ChangeDDDPrefix {
		return ddd, prefix, nil
	}
	if ddd != s.defaults.DefaultDDD || prefix != s.defaults.DefaultPrefix {
		return "", "", apperrors.NewPermissionRefusal("no permission to change the DDD or prefix")
	}
	return ddd, prefix, nil
}
