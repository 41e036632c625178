package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/schoolping/schoolping-backend/internal/caller"
	"github.com/schoolping/schoolping-backend/internal/db"
	"github.com/schoolping/schoolping-backend/internal/logger"
	"github.com/schoolping/schoolping-backend/internal/repos"
	"github.com/schoolping/schoolping-backend/internal/types"
	"github.com/schoolping/schoolping-backend/internal/utils"
)

// Seeds a demo school: one user per role, one course, and the staffing,
// enrollment and guardianship links between them. Safe to run repeatedly;
// everything is ensured, not inserted blindly.
func main() {
	_ = godotenv.Load()

	log, err := logger.New("development")
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	userRepo := repos.NewUserRepo(thePG, log)
	roleRepo := repos.NewRoleRepo(thePG, log)
	staffRepo := repos.NewStaffRepo(thePG, log)
	studentRepo := repos.NewStudentRepo(thePG, log)
	guardianRepo := repos.NewGuardianRepo(thePG, log)
	courseRepo := repos.NewCourseRepo(thePG, log)

	ctx := context.Background()
	password := utils.GetEnv("SEED_PASSWORD", "changeme123", log)

	roleNames := []string{
		caller.RoleSchoolAdmin,
		caller.RoleSchoolStaff,
		caller.RoleStudent,
		caller.RoleGuardian,
	}
	roles := map[string]*types.Role{}
	for _, name := range roleNames {
		role, err := roleRepo.EnsureByName(ctx, nil, name)
		if err != nil {
			log.Error("Ensure role failed", "role", name, "error", err)
			os.Exit(1)
		}
		roles[name] = role
	}

	ensureUser := func(email, roleName string) *types.User {
		existing, err := userRepo.GetByEmails(ctx, nil, []string{email})
		if err != nil {
			log.Error("Load user failed", "error", err)
			os.Exit(1)
		}
		if len(existing) > 0 && existing[0] != nil {
			return existing[0]
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			log.Error("Hash password failed", "error", err)
			os.Exit(1)
		}
		created, err := userRepo.Create(ctx, nil, []*types.User{{
			Email:        email,
			PasswordHash: string(hash),
			RoleID:       roles[roleName].ID,
		}})
		if err != nil {
			log.Error("Create user failed", "error", err)
			os.Exit(1)
		}
		log.Info("Seeded user", "role", roleName)
		return created[0]
	}

	adminUser := ensureUser("admin@school.test", caller.RoleSchoolAdmin)
	teacherUser := ensureUser("teacher@school.test", caller.RoleSchoolStaff)
	studentUser := ensureUser("student@school.test", caller.RoleStudent)
	parentUser := ensureUser("parent@school.test", caller.RoleGuardian)
	_ = adminUser

	course, err := courseRepo.EnsureByCode(ctx, nil, "MATH101", "Mathematics 101", "Introductory mathematics")
	if err != nil {
		log.Error("Ensure course failed", "error", err)
		os.Exit(1)
	}

	teacher, err := staffRepo.EnsureByUserID(ctx, nil, teacherUser.ID, "Teacher")
	if err != nil {
		log.Error("Ensure staff failed", "error", err)
		os.Exit(1)
	}
	if err := staffRepo.AssignCourse(ctx, nil, course.ID, teacher.ID, "teacher"); err != nil {
		log.Error("Assign course failed", "error", err)
		os.Exit(1)
	}

	student, err := studentRepo.EnsureByUserID(ctx, nil, studentUser.ID, "S-0001", "9")
	if err != nil {
		log.Error("Ensure student failed", "error", err)
		os.Exit(1)
	}
	if err := studentRepo.Enroll(ctx, nil, course.ID, student.ID); err != nil {
		log.Error("Enroll student failed", "error", err)
		os.Exit(1)
	}

	guardian, err := guardianRepo.EnsureByUserID(ctx, nil, parentUser.ID)
	if err != nil {
		log.Error("Ensure guardian failed", "error", err)
		os.Exit(1)
	}
	if err := guardianRepo.LinkStudent(ctx, nil, guardian.ID, student.ID, "parent"); err != nil {
		log.Error("Link guardian failed", "error", err)
		os.Exit(1)
	}

	log.Info("Seed complete", "course", course.Code)
}
