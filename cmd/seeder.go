package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample users and profiles for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{"badges", "external_links", "profiles", "users"} {
				if err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), cfg.Security.BCryptCost)

		seedUsers := []struct {
			Email       string
			DisplayName string
			Role        string
		}{
			{"amara.okafor@commandos.health", "Amara Okafor", "ceo"},
			{"daniel.reyes@commandos.health", "Daniel Reyes", "cfo"},
			{"mei.tanaka@commandos.health", "Mei Tanaka", "cmo"},
			{"viktor.lindqvist@commandos.health", "Viktor Lindqvist", "cto"},
			{"admin@commandos.health", "Platform Admin", "admin"},
			{"priya.sharma@commandos.health", "Priya Sharma", "hipaa_officer"},
			{"sam.carter@commandos.health", "Sam Carter", "staff"},
		}

		for _, u := range seedUsers {
			var exists int
			row := db.Raw("SELECT 1 FROM users WHERE email = ?", u.Email).Row()
			if err := row.Scan(&exists); err == nil {
				fmt.Printf("user %s already exists; skipping\n", u.Email)
				continue
			}

			if err := db.Exec(
				"INSERT INTO users (email, display_name, password_hash, is_active, created_at, updated_at) VALUES (?, ?, ?, true, now(), now())",
				u.Email, u.DisplayName, string(hash),
			).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", u.Email, err)
			}

			var userID int64
			if err := db.Raw("SELECT id FROM users WHERE email = ?", u.Email).Row().Scan(&userID); err != nil {
				log.Fatalf("failed to lookup user id for %s: %v", u.Email, err)
			}

			if err := db.Exec(
				"INSERT INTO profiles (user_id, role, display_name, created_at, updated_at) VALUES (?, ?, ?, now(), now())",
				userID, u.Role, u.DisplayName,
			).Error; err != nil {
				log.Fatalf("failed to insert profile for %s: %v", u.Email, err)
			}

			fmt.Printf("Seeded user %s with role %s\n", u.Email, u.Role)
		}

		kpis := []struct {
			Metric string
			Label  string
			Value  float64
			Unit   string
			Period string
		}{
			{"active_members", "Active Members", 48210, "members", "2026-Q3"},
			{"claims_paid", "Claims Paid", 12.4, "USD millions", "2026-Q3"},
			{"net_revenue", "Net Revenue", 18.9, "USD millions", "2026-Q3"},
			{"member_nps", "Member NPS", 62, "score", "2026-Q3"},
		}

		for _, k := range kpis {
			var exists int
			row := db.Raw("SELECT 1 FROM kpi_records WHERE metric = ? AND period = ?", k.Metric, k.Period).Row()
			if err := row.Scan(&exists); err == nil {
				continue
			}

			if err := db.Exec(
				"INSERT INTO kpi_records (metric, label, value, unit, period, recorded_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?, now(), now(), now())",
				k.Metric, k.Label, k.Value, k.Unit, k.Period,
			).Error; err != nil {
				log.Fatalf("failed to insert kpi %s: %v", k.Metric, err)
			}
			fmt.Printf("Seeded KPI record: %s (%s)\n", k.Metric, k.Period)
		}

		fmt.Println("Seed complete")
	},
}
