package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"entitlement/internal/infra"
)

var statements = []string{
	`create table if not exists subscriptions (
		id uuid primary key,
		account_id text not null,
		plan_id text not null,
		status text not null,
		start_at timestamptz not null,
		end_at timestamptz not null,
		next_payment_at timestamptz not null,
		trial_end_at timestamptz,
		data_retention_end_at timestamptz not null,
		payment_status text not null default 'paid',
		is_trial boolean not null default false,
		created_at timestamptz not null default now()
	)`,
	`create index if not exists idx_subscriptions_account_status
		on subscriptions (account_id, status)`,
	`create index if not exists idx_subscriptions_trial_end
		on subscriptions (end_at) where is_trial and status in ('active','expired')`,
	`create table if not exists trial_ledger (
		account_id text primary key,
		email text not null default '',
		phone text not null default '',
		blocked boolean not null default false,
		blocked_at timestamptz,
		created_at timestamptz not null default now()
	)`,
	`create index if not exists idx_trial_ledger_email on trial_ledger (email)`,
	`create index if not exists idx_trial_ledger_phone on trial_ledger (phone)`,
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "migrate: open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		fmt.Fprintln(os.Stderr, "migrate: ping:", err)
		os.Exit(1)
	}

	for i, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: statement %d: %v\n", i+1, err)
			os.Exit(1)
		}
	}
	fmt.Println("migrate: schema up to date")
}
