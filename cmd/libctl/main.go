package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"library_app_echo/internal/models"
	"library_app_echo/internal/services"
)

func main() {
	root := &cobra.Command{
		Use:           "libctl",
		Short:         "Administrative tooling for the library system",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		seedFineRulesCmd(),
		seedTiersCmd(),
		seedRolesCmd(),
		createStaffCmd(),
		grantRoleCmd(),
		scheduleCmd(),
	)

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

// openDB loads .env and connects; every subcommand needs it
func openDB() (*gorm.DB, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	return services.InitDB(dsn)
}

func seedFineRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-fine-rules",
		Short: "Replace the fine rule table with the standard tiered rates",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}

			rules := []models.FineRule{
				// 1-3 days late: 2 MVR per day
				{FineType: models.FineTypeOverdue, DelayFrom: 1, DelayTo: 3, RatePerDay: 2, ProcessingFee: 0},
				// 4-7 days late: 5 MVR per day
				{FineType: models.FineTypeOverdue, DelayFrom: 4, DelayTo: 7, RatePerDay: 5, ProcessingFee: 0},
				// more than 7 days: 10 MVR per day
				{FineType: models.FineTypeOverdue, DelayFrom: 8, DelayTo: 999, RatePerDay: 10, ProcessingFee: 0},
				// lost and damaged charge the full copy price plus a flat fee
				{FineType: models.FineTypeLost, DelayFrom: 1, DelayTo: 999, RatePerDay: 0, ProcessingFee: 50},
				{FineType: models.FineTypeDamaged, DelayFrom: 1, DelayTo: 999, RatePerDay: 0, ProcessingFee: 50},
			}

			return db.Transaction(func(tx *gorm.DB) error {
				if err := tx.Where("1 = 1").Delete(&models.FineRule{}).Error; err != nil {
					return err
				}
				if err := tx.Create(&rules).Error; err != nil {
					return err
				}
				fmt.Printf("Created %d fine rules\n", len(rules))

				// sanity-check the tier boundaries against the new table
				for _, days := range []int{1, 3, 4, 7, 8, 15, 30} {
					fmt.Printf("  %d days overdue: MVR %.2f\n", days, models.OverdueFineAmount(rules, days))
				}
				return nil
			})
		},
	}
}

func seedTiersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-tiers",
		Short: "Create or update the three membership tiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}

			tiers := []models.MembershipTier{
				{Type: models.MembershipTypeBasic, MonthlyFee: 50, AnnualFee: 500, MaxBooks: 3, LoanPeriodDays: 14, ExtensionDays: 0},
				{Type: models.MembershipTypePremium, MonthlyFee: 75, AnnualFee: 750, MaxBooks: 5, LoanPeriodDays: 14, ExtensionDays: 7},
				{Type: models.MembershipTypeStudent, MonthlyFee: 30, AnnualFee: 300, MaxBooks: 4, LoanPeriodDays: 21, ExtensionDays: 0},
			}

			for i := range tiers {
				err := db.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "type"}},
					UpdateAll: true,
				}).Create(&tiers[i]).Error
				if err != nil {
					return err
				}
				fmt.Printf("Tier %s: %d books, %d day loans, %d extension days\n",
					tiers[i].Type, tiers[i].MaxBooks, tiers[i].LoanPeriodDays, tiers[i].ExtensionDays)
			}
			return nil
		},
	}
}

func seedRolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-roles",
		Short: "Create the librarian and manager roles with their permissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}

			permissions := map[string]string{
				models.PermCirculationManage: "Issue, return and track loans at the desk",
				models.PermCatalogManage:     "Add, update and remove books from inventory",
				models.PermFinesManage:       "View fines, record payments and edit fine rules",
				models.PermReservationsAdmin: "Place priority holds and manage reservation queues",
				models.PermMembershipManage:  "Manage member accounts, tiers and roles",
				models.PermBranchManage:      "Add and manage library branches",
			}

			roles := map[string][]string{
				"librarian": {
					models.PermCirculationManage,
					models.PermCatalogManage,
					models.PermFinesManage,
					models.PermReservationsAdmin,
				},
				"manager": {
					models.PermCirculationManage,
					models.PermCatalogManage,
					models.PermFinesManage,
					models.PermReservationsAdmin,
					models.PermMembershipManage,
					models.PermBranchManage,
				},
			}

			return db.Transaction(func(tx *gorm.DB) error {
				byCode := make(map[string]models.Permission, len(permissions))
				for code, description := range permissions {
					var perm models.Permission
					err := tx.Where(models.Permission{Code: code}).
						Assign(models.Permission{Description: description}).
						FirstOrCreate(&perm).Error
					if err != nil {
						return err
					}
					byCode[code] = perm
				}

				for name, codes := range roles {
					var role models.Role
					if err := tx.Where(models.Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
						return err
					}

					perms := make([]models.Permission, 0, len(codes))
					for _, code := range codes {
						perms = append(perms, byCode[code])
					}
					if err := tx.Model(&role).Association("Permissions").Replace(perms); err != nil {
						return err
					}
					fmt.Printf("Role %s: %d permissions\n", name, len(perms))
				}
				return nil
			})
		},
	}
}

func createStaffCmd() *cobra.Command {
	var email, name, password, role string

	cmd := &cobra.Command{
		Use:   "create-staff",
		Short: "Create a staff account and assign it a role",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}

			hash, err := services.HashPassword(password)
			if err != nil {
				return err
			}

			user := models.User{
				Email:            email,
				Name:             name,
				PasswordHash:     hash,
				MembershipStatus: models.MembershipStatusActive,
			}

			return db.Transaction(func(tx *gorm.DB) error {
				if err := tx.Create(&user).Error; err != nil {
					return err
				}

				var r models.Role
				if err := tx.Where("name = ?", role).First(&r).Error; err != nil {
					return fmt.Errorf("role %q not found, run seed-roles first: %w", role, err)
				}
				if err := tx.Model(&user).Association("Roles").Append(&r); err != nil {
					return err
				}

				fmt.Printf("Created staff user %d (%s) with role %s\n", user.ID, user.Email, role)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "E-mail address (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&password, "password", "", "Initial password (required)")
	cmd.Flags().StringVar(&role, "role", "librarian", "Role name to assign")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("password")

	return cmd
}

func grantRoleCmd() *cobra.Command {
	var userID uint
	var role string

	cmd := &cobra.Command{
		Use:   "grant-role",
		Short: "Assign an existing role to an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}

			var user models.User
			if err := db.First(&user, userID).Error; err != nil {
				return fmt.Errorf("user %d not found: %w", userID, err)
			}

			var r models.Role
			if err := db.Where("name = ?", role).First(&r).Error; err != nil {
				return fmt.Errorf("role %q not found: %w", role, err)
			}

			if err := db.Model(&user).Association("Roles").Append(&r); err != nil {
				return err
			}

			fmt.Printf("Granted role %s to user %d (%s)\n", role, user.ID, user.Email)
			return nil
		},
	}

	cmd.Flags().UintVar(&userID, "user", 0, "User ID (required)")
	cmd.Flags().StringVar(&role, "role", "", "Role name (required)")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("role")

	return cmd
}

func scheduleCmd() *cobra.Command {
	var taskName, argsJSON, dueStr, taskType, recurring string
	var maxAttempt int

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Enqueue a scheduled task for the worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}

			var taskArgs map[string]interface{}
			if argsJSON != "" {
				if err := json.Unmarshal([]byte(argsJSON), &taskArgs); err != nil {
					return fmt.Errorf("invalid JSON arguments: %w", err)
				}
			}

			due, err := time.Parse(time.RFC3339, dueStr)
			if err != nil {
				due, err = time.ParseInLocation("2006-01-02 15:04", dueStr, time.Local)
				if err != nil {
					return fmt.Errorf("invalid due date, use '2006-01-02 15:04' or RFC3339: %w", err)
				}
			}

			var recurringPtr *string
			if recurring != "" {
				recurringPtr = &recurring
			}

			task := models.ScheduledTask{
				TaskName:          taskName,
				Arguments:         taskArgs,
				Due:               due,
				TaskType:          models.ScheduledTaskType(taskType),
				RecurringInterval: recurringPtr,
				MaxAttempt:        maxAttempt,
				Status:            models.ScheduledTaskStatusActive,
			}

			if err := db.Create(&task).Error; err != nil {
				return fmt.Errorf("failed to create task: %w", err)
			}

			fmt.Printf("Created task %d (%s), due %s, type %s\n", task.ID, task.TaskName, task.Due, task.TaskType)
			return nil
		},
	}

	cmd.Flags().StringVar(&taskName, "task", "", "Task name (required)")
	cmd.Flags().StringVar(&argsJSON, "args", "", "JSON arguments for the task")
	cmd.Flags().StringVar(&dueStr, "due", "", "Due date (required)")
	cmd.Flags().StringVar(&taskType, "type", "onetime", "Task type: onetime or recurring")
	cmd.Flags().StringVar(&recurring, "recurring", "", "RFC 5545 recurrence rule, e.g. FREQ=DAILY")
	cmd.Flags().IntVar(&maxAttempt, "max-attempt", 3, "Max delivery attempts")
	cmd.MarkFlagRequired("task")
	cmd.MarkFlagRequired("due")

	return cmd
}
