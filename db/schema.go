// ABOUTME: Database schema definitions for the seven lead tables and their lookups
// ABOUTME: DDL is portable between SQLite and Postgres
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id TEXT PRIMARY KEY,
	full_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS companies (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	revenue DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS acquisition_channels (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	category TEXT
);

CREATE TABLE IF NOT EXISTS lead_forms (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS valuation_leads (
	id TEXT PRIMARY KEY,
	contact_name TEXT,
	email TEXT,
	phone TEXT,
	company_name TEXT,
	industry TEXT,
	employee_range TEXT,
	revenue DOUBLE PRECISION,
	ebitda DOUBLE PRECISION,
	final_valuation DOUBLE PRECISION,
	valuation_type TEXT,
	location TEXT,
	status TEXT,
	crm_status TEXT,
	assigned_to TEXT REFERENCES profiles(id),
	utm_source TEXT,
	company_id TEXT REFERENCES companies(id),
	acquisition_channel_id TEXT REFERENCES acquisition_channels(id),
	lead_form_id TEXT REFERENCES lead_forms(id),
	email_sent BOOLEAN NOT NULL DEFAULT FALSE,
	email_opened BOOLEAN NOT NULL DEFAULT FALSE,
	hubspot_sent BOOLEAN NOT NULL DEFAULT FALSE,
	brevo_sent BOOLEAN NOT NULL DEFAULT FALSE,
	is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_valuation_leads_created_at ON valuation_leads(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_valuation_leads_email ON valuation_leads(email);

CREATE TABLE IF NOT EXISTS contact_leads (
	id TEXT PRIMARY KEY,
	full_name TEXT,
	email TEXT,
	phone TEXT,
	company TEXT,
	sector TEXT,
	company_size TEXT,
	annual_revenue DOUBLE PRECISION,
	message TEXT,
	status TEXT,
	crm_status TEXT,
	assigned_to TEXT REFERENCES profiles(id),
	utm_source TEXT,
	company_id TEXT REFERENCES companies(id),
	acquisition_channel_id TEXT REFERENCES acquisition_channels(id),
	lead_form_id TEXT REFERENCES lead_forms(id),
	email_sent BOOLEAN NOT NULL DEFAULT FALSE,
	email_opened BOOLEAN NOT NULL DEFAULT FALSE,
	hubspot_synced BOOLEAN NOT NULL DEFAULT FALSE,
	is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_contact_leads_created_at ON contact_leads(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_contact_leads_email ON contact_leads(email);

CREATE TABLE IF NOT EXISTS collaborator_applications (
	id TEXT PRIMARY KEY,
	full_name TEXT,
	email TEXT,
	phone TEXT,
	company TEXT,
	profession TEXT,
	experience TEXT,
	motivation TEXT,
	status TEXT,
	assigned_to TEXT REFERENCES profiles(id),
	is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_collaborator_applications_created_at ON collaborator_applications(created_at DESC);

CREATE TABLE IF NOT EXISTS acquisition_requests (
	id TEXT PRIMARY KEY,
	full_name TEXT,
	email TEXT,
	phone TEXT,
	company TEXT,
	sectors_of_interest TEXT,
	investment_budget TEXT,
	preferred_location TEXT,
	additional_info TEXT,
	status TEXT,
	crm_status TEXT,
	assigned_to TEXT REFERENCES profiles(id),
	utm_source TEXT,
	acquisition_channel_id TEXT REFERENCES acquisition_channels(id),
	brevo_synced BOOLEAN NOT NULL DEFAULT FALSE,
	is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_acquisition_requests_created_at ON acquisition_requests(created_at DESC);

CREATE TABLE IF NOT EXISTS company_acquisition_inquiries (
	id TEXT PRIMARY KEY,
	full_name TEXT,
	email TEXT,
	phone TEXT,
	company TEXT,
	target_sector TEXT,
	investment_range TEXT,
	preferred_location TEXT,
	status TEXT,
	assigned_to TEXT REFERENCES profiles(id),
	utm_source TEXT,
	company_id TEXT REFERENCES companies(id),
	is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_company_acquisition_inquiries_created_at ON company_acquisition_inquiries(created_at DESC);

CREATE TABLE IF NOT EXISTS general_contact_leads (
	id TEXT PRIMARY KEY,
	full_name TEXT,
	email TEXT,
	phone TEXT,
	company TEXT,
	service_type TEXT,
	message TEXT,
	status TEXT,
	crm_status TEXT,
	assigned_to TEXT REFERENCES profiles(id),
	utm_source TEXT,
	acquisition_channel_id TEXT REFERENCES acquisition_channels(id),
	lead_form_id TEXT REFERENCES lead_forms(id),
	email_sent BOOLEAN NOT NULL DEFAULT FALSE,
	email_opened BOOLEAN NOT NULL DEFAULT FALSE,
	is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_general_contact_leads_created_at ON general_contact_leads(created_at DESC);

CREATE TABLE IF NOT EXISTS advisor_leads (
	id TEXT PRIMARY KEY,
	name TEXT,
	email TEXT,
	phone TEXT,
	firm_name TEXT,
	sector TEXT,
	employee_range TEXT,
	revenue DOUBLE PRECISION,
	ebitda DOUBLE PRECISION,
	final_valuation DOUBLE PRECISION,
	status TEXT,
	assigned_to TEXT REFERENCES profiles(id),
	email_sent BOOLEAN NOT NULL DEFAULT FALSE,
	email_opened BOOLEAN NOT NULL DEFAULT FALSE,
	is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_advisor_leads_created_at ON advisor_leads(created_at DESC);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
