package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nurser/dutyboard/config"
	"github.com/nurser/dutyboard/internal/data"
	"github.com/nurser/dutyboard/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Shifts   *service.ShiftService
	Duties   *service.DutyService
	Patients *service.PatientService
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *mongo.Database
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildServices wires repositories and services for the application.
func BuildServices(deps ServiceDeps) (ServiceContainer, error) {
	if deps.Config == nil || deps.DB == nil {
		return ServiceContainer{}, fmt.Errorf("build services: config and database are required")
	}

	userRepo := data.NewUserRepo(deps.DB)
	shiftRepo := data.NewShiftRepo(deps.DB)
	dutyRepo := data.NewDutyRepo(deps.DB)
	patientRepo := data.NewPatientRepo(deps.DB)

	authSvc, err := BuildAuthService(AuthDeps{
		Auth:        deps.Config.Auth,
		Users:       userRepo,
		RedisClient: deps.RedisClient,
		Logger:      deps.Logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build auth service: %w", err)
	}

	return ServiceContainer{
		Auth:  authSvc,
		Users: service.NewUserService(service.UserServiceOptions{Users: userRepo}),
		Shifts: service.NewShiftService(service.ShiftServiceOptions{
			Shifts: shiftRepo,
			Users:  userRepo,
		}),
		Duties: service.NewDutyService(service.DutyServiceOptions{
			Duties:   dutyRepo,
			Users:    userRepo,
			Patients: patientRepo,
			Shifts:   shiftRepo,
		}),
		Patients: service.NewPatientService(service.PatientServiceOptions{Patients: patientRepo}),
	}, nil
}
