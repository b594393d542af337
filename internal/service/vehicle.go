package service

import (
	"context"

	"github.com/google/uuid"

	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/logger"
	"rentacar-backend/internal/repository"
)

type vehicleService struct {
	uow   repository.UnitOfWork
	repos repository.Repositories
	clock domain.Clock
}

func NewVehicleService(uow repository.UnitOfWork, repos repository.Repositories, clock domain.Clock) VehicleService {
	return &vehicleService{uow: uow, repos: repos, clock: clock}
}

func (s *vehicleService) RegisterVehicle(ctx context.Context, ownerID string, params domain.VehicleParams) (*domain.Vehicle, error) {
	logger.EnterMethod("vehicleService.RegisterVehicle", "ownerID", ownerID, "plate", params.LicensePlate)

	owner, err := s.repos.Users.GetByID(ctx, ownerID)
	if err != nil {
		logger.ExitMethodWithError("vehicleService.RegisterVehicle", err, "ownerID", ownerID)
		return nil, err
	}
	if !owner.IsOwner() {
		err := domain.Forbidden("only owners can register vehicles")
		logger.ExitMethodWithError("vehicleService.RegisterVehicle", err, "ownerID", ownerID)
		return nil, err
	}

	params.ID = uuid.New().String()
	params.OwnerID = ownerID
	vehicle, err := domain.NewVehicle(params, s.clock.Now())
	if err != nil {
		logger.ExitMethodWithError("vehicleService.RegisterVehicle", err, "ownerID", ownerID)
		return nil, err
	}
	// a duplicate license plate surfaces as a Conflict from the unique index
	if err := s.repos.Vehicles.Create(ctx, vehicle); err != nil {
		logger.ExitMethodWithError("vehicleService.RegisterVehicle", err, "ownerID", ownerID)
		return nil, err
	}

	logger.ExitMethod("vehicleService.RegisterVehicle", "vehicleID", vehicle.ID)
	return vehicle, nil
}

func (s *vehicleService) VerifyVehicle(ctx context.Context, adminID, vehicleID string) (*domain.Vehicle, error) {
	logger.EnterMethod("vehicleService.VerifyVehicle", "adminID", adminID, "vehicleID", vehicleID)
	now := s.clock.Now()

	var vehicle *domain.Vehicle
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		admin, err := repos.Users.GetByID(ctx, adminID)
		if err != nil {
			return err
		}
		if !admin.IsAdmin() {
			return domain.Forbidden("only admins can verify vehicles")
		}
		vehicle, err = repos.Vehicles.GetByIDForUpdate(ctx, vehicleID)
		if err != nil {
			return err
		}
		if err := vehicle.Verify(now); err != nil {
			return err
		}
		return repos.Vehicles.Update(ctx, vehicle)
	})
	if err != nil {
		logger.ExitMethodWithError("vehicleService.VerifyVehicle", err, "vehicleID", vehicleID)
		return nil, err
	}

	logger.ExitMethod("vehicleService.VerifyVehicle", "vehicleID", vehicleID)
	return vehicle, nil
}

// SetAvailability lets an owner list or unlist a verified vehicle. A vehicle
// cannot change availability while it is out on an active rental.
func (s *vehicleService) SetAvailability(ctx context.Context, ownerID, vehicleID string, available bool) (*domain.Vehicle, error) {
	logger.EnterMethod("vehicleService.SetAvailability", "ownerID", ownerID, "vehicleID", vehicleID, "available", available)
	now := s.clock.Now()

	var vehicle *domain.Vehicle
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		vehicle, err = repos.Vehicles.GetByIDForUpdate(ctx, vehicleID)
		if err != nil {
			return err
		}
		if vehicle.OwnerID != ownerID {
			return domain.Forbidden("vehicle %s belongs to another owner", vehicleID)
		}
		if available && !vehicle.IsVerified() {
			return domain.InvalidState("only verified vehicles can be made available")
		}
		active, err := repos.Rentals.HasActiveByVehicle(ctx, vehicleID)
		if err != nil {
			return err
		}
		if active {
			return domain.InvalidState("vehicle %s has an active rental", vehicleID)
		}
		if available {
			vehicle.MarkAsAvailable(now)
		} else {
			vehicle.MarkAsUnavailable(now)
		}
		return repos.Vehicles.Update(ctx, vehicle)
	})
	if err != nil {
		logger.ExitMethodWithError("vehicleService.SetAvailability", err, "vehicleID", vehicleID)
		return nil, err
	}

	logger.ExitMethod("vehicleService.SetAvailability", "vehicleID", vehicleID, "available", vehicle.IsAvailable)
	return vehicle, nil
}

func (s *vehicleService) GetVehicle(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	return s.repos.Vehicles.GetByID(ctx, vehicleID)
}

func (s *vehicleService) ListOwnerVehicles(ctx context.Context, ownerID string) ([]domain.Vehicle, error) {
	return s.repos.Vehicles.ListByOwner(ctx, ownerID)
}
