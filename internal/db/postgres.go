package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/schoolping/schoolping-backend/internal/logger"
	"github.com/schoolping/schoolping-backend/internal/types"
	"github.com/schoolping/schoolping-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "schoolping", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...")
	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := gormDB.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		serviceLog.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: gormDB, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.Role{},
		&types.User{},
		&types.Staff{},
		&types.Student{},
		&types.Guardian{},
		&types.GuardianStudent{},
		&types.Course{},
		&types.CourseStaff{},
		&types.Enrollment{},
		&types.Device{},
		&types.Topic{},
		&types.Subscription{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		name string
		ddl  string
	}{
		{"fk_user_role_id", `ALTER TABLE "user" ADD CONSTRAINT "fk_user_role_id" FOREIGN KEY ("role_id") REFERENCES "role"("id")`},
		{"fk_staff_user_id", `ALTER TABLE "staff" ADD CONSTRAINT "fk_staff_user_id" FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE CASCADE`},
		{"fk_student_user_id", `ALTER TABLE "student" ADD CONSTRAINT "fk_student_user_id" FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE CASCADE`},
		{"fk_guardian_user_id", `ALTER TABLE "guardian" ADD CONSTRAINT "fk_guardian_user_id" FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE CASCADE`},
		{"fk_guardian_student_guardian_id", `ALTER TABLE "guardian_student" ADD CONSTRAINT "fk_guardian_student_guardian_id" FOREIGN KEY ("guardian_id") REFERENCES "guardian"("id") ON DELETE CASCADE`},
		{"fk_guardian_student_student_id", `ALTER TABLE "guardian_student" ADD CONSTRAINT "fk_guardian_student_student_id" FOREIGN KEY ("student_id") REFERENCES "student"("id") ON DELETE CASCADE`},
		{"fk_course_staff_course_id", `ALTER TABLE "course_staff" ADD CONSTRAINT "fk_course_staff_course_id" FOREIGN KEY ("course_id") REFERENCES "course"("id") ON DELETE CASCADE`},
		{"fk_course_staff_staff_id", `ALTER TABLE "course_staff" ADD CONSTRAINT "fk_course_staff_staff_id" FOREIGN KEY ("staff_id") REFERENCES "staff"("id") ON DELETE CASCADE`},
		{"fk_enrollment_course_id", `ALTER TABLE "enrollment" ADD CONSTRAINT "fk_enrollment_course_id" FOREIGN KEY ("course_id") REFERENCES "course"("id") ON DELETE CASCADE`},
		{"fk_enrollment_student_id", `ALTER TABLE "enrollment" ADD CONSTRAINT "fk_enrollment_student_id" FOREIGN KEY ("student_id") REFERENCES "student"("id") ON DELETE CASCADE`},
		{"fk_device_user_id", `ALTER TABLE "device" ADD CONSTRAINT "fk_device_user_id" FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE CASCADE`},
		{"fk_subscription_device_id", `ALTER TABLE "subscription" ADD CONSTRAINT "fk_subscription_device_id" FOREIGN KEY ("device_id") REFERENCES "device"("id") ON DELETE CASCADE`},
		{"fk_subscription_topic_id", `ALTER TABLE "subscription" ADD CONSTRAINT "fk_subscription_topic_id" FOREIGN KEY ("topic_id") REFERENCES "topic"("id") ON DELETE CASCADE`},
	}
	for _, c := range constraints {
		var count int64
		if err := s.db.Raw(
			`SELECT count(*) FROM information_schema.table_constraints WHERE constraint_name = ?`, c.name,
		).Scan(&count).Error; err != nil {
			return fmt.Errorf("check constraint %s: %w", c.name, err)
		}
		if count > 0 {
			continue
		}
		if err := s.db.Exec(c.ddl).Error; err != nil {
			return fmt.Errorf("add %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
