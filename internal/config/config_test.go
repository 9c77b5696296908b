package config

import (
	"strings"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.AppPort != "8080" || cfg.StorageDriver != DriverSQLite || cfg.SQLitePath != "economy.db" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.MineCooldown != 5*time.Minute || cfg.DailyCooldown != 24*time.Hour || cfg.ProfitChance != 0.2 {
		t.Fatalf("economy defaults = %s %s %v", cfg.MineCooldown, cfg.DailyCooldown, cfg.ProfitChance)
	}
	if cfg.GearMaxLevel != 0 {
		t.Fatalf("GearMaxLevel = %d, want uncapped", cfg.GearMaxLevel)
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/economy")
	t.Setenv("WORK_COOLDOWN", "90m")
	t.Setenv("ADMIN_USER_IDS", "7,9")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.WorkCooldown != 90*time.Minute {
		t.Fatalf("WorkCooldown = %s, want 90m", cfg.WorkCooldown)
	}
	if !cfg.IsAdmin(9) || cfg.IsAdmin(8) {
		t.Fatalf("admins = %v", cfg.AdminIDs)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}, "JWT_SECRET"},
		{"postgres without url", map[string]string{"STORAGE_DRIVER": "postgres"}, "DATABASE_URL"},
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "mysql"}, "STORAGE_DRIVER"},
		{"zero cooldown", map[string]string{"MINE_COOLDOWN": "0s"}, "MINE_COOLDOWN"},
		{"chance above one", map[string]string{"PROFIT_CHANCE": "1.5"}, "PROFIT_CHANCE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "secret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Parse()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}
