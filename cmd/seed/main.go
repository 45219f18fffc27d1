// seed inserts the demo staff and customer. Safe to run repeatedly.
package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"slot-booking/backend/internal/config"
	customerdomain "slot-booking/backend/internal/customer/domain"
	customerrepo "slot-booking/backend/internal/customer/repository"
	"slot-booking/backend/internal/db"
	"slot-booking/backend/internal/logging"
	"slot-booking/backend/internal/security"
	staffdomain "slot-booking/backend/internal/staff/domain"
	staffrepo "slot-booking/backend/internal/staff/repository"
)

const (
	staffPassword    = "temp-password"
	customerPassword = "password123"
)

var demoStaff = []staffdomain.Staff{
	{Code: "STAFF_A", Name: "担当A", Email: "staff-a@example.com"},
	{Code: "STAFF_B", Name: "担当B", Email: "staff-b@example.com"},
}

var demoCustomer = customerdomain.Customer{
	Name:  "デモ顧客",
	Email: "customer@example.com",
	Phone: "000-0000-0000",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("db: open failed")
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hasher := security.NewHasher(cfg.BcryptCost)
	staff := staffrepo.NewPostgresRepository(conn)
	customers := customerrepo.NewPostgresRepository(conn)

	for _, s := range demoStaff {
		if err := seedStaff(ctx, staff, hasher, s); err != nil {
			logger.WithError(err).WithField("code", s.Code).Fatal("seed: staff")
		}
	}
	if err := seedCustomer(ctx, customers, hasher, demoCustomer); err != nil {
		logger.WithError(err).WithField("email", demoCustomer.Email).Fatal("seed: customer")
	}
	logger.Info("seed: done")
}

func seedStaff(ctx context.Context, repo *staffrepo.PostgresRepository, hasher *security.Hasher, s staffdomain.Staff) error {
	existing, err := repo.GetByCode(ctx, s.Code)
	if err != nil {
		return err
	}
	if existing != nil {
		logrus.WithField("code", s.Code).Info("seed: staff exists, skipping")
		return nil
	}
	hash, err := hasher.Hash(staffPassword)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	s.ID = uuid.New().String()
	s.PasswordHash = hash
	s.CreatedAt, s.UpdatedAt = now, now
	if err := s.Validate(); err != nil {
		return err
	}
	return repo.Create(ctx, &s)
}

func seedCustomer(ctx context.Context, repo *customerrepo.PostgresRepository, hasher *security.Hasher, c customerdomain.Customer) error {
	existing, err := repo.GetByEmail(ctx, c.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		logrus.WithField("email", c.Email).Info("seed: customer exists, skipping")
		return nil
	}
	hash, err := hasher.Hash(customerPassword)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	c.ID = uuid.New().String()
	c.PasswordHash = hash
	c.CreatedAt, c.UpdatedAt = now, now
	if err := c.Validate(); err != nil {
		return err
	}
	return repo.Create(ctx, &c)
}
