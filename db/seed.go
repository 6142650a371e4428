// ABOUTME: Demo data seeding across all seven lead tables
// ABOUTME: Includes repeat identities across sources so dedup and occurrence counts have something to show
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/leadbook/models"
	"github.com/harperreed/leadbook/sources"
)

// SeedSummary reports what Seed inserted.
type SeedSummary struct {
	Profiles int
	Leads    map[models.Origin]int
}

// Seed inserts a small realistic dataset relative to now.
func Seed(ctx context.Context, repo *LeadRepository, now time.Time) (SeedSummary, error) {
	summary := SeedSummary{Leads: make(map[models.Origin]int)}

	ana, luis := uuid.New().String(), uuid.New().String()
	for id, name := range map[string]string{ana: "Ana Ruiz", luis: "Luis Ortega"} {
		if err := repo.InsertProfile(ctx, id, name); err != nil {
			return summary, err
		}
		summary.Profiles++
	}

	acme := uuid.New().String()
	acmeRevenue := 4_200_000.0
	if err := repo.InsertCompany(ctx, acme, "Acme Logistics", &acmeRevenue); err != nil {
		return summary, err
	}
	ads := uuid.New().String()
	if err := repo.InsertChannel(ctx, ads, "Google Ads", "paid"); err != nil {
		return summary, err
	}
	form := uuid.New().String()
	if err := repo.InsertLeadForm(ctx, form, "Valuation calculator"); err != nil {
		return summary, err
	}

	day := func(n int) time.Time { return now.Add(-time.Duration(n) * 24 * time.Hour).UTC() }

	rows := []struct {
		origin models.Origin
		rec    sources.Record
	}{
		{models.OriginValuation, sources.Record{
			"contact_name": "Marta Gil", "email": "marta@acme.example", "company_name": "Acme Logistics",
			"industry": "logistics", "employee_range": "51-200", "revenue": 4_200_000.0, "ebitda": 610_000.0,
			"final_valuation": 3_900_000.0, "valuation_type": "sell", "location": "Madrid",
			"status": "new", "crm_status": "qualified", "assigned_to": ana, "utm_source": "google",
			"company_id": acme, "acquisition_channel_id": ads, "lead_form_id": form,
			"email_sent": true, "email_opened": true, "created_at": day(1),
		}},
		{models.OriginValuation, sources.Record{
			"contact_name": "Jordi Puig", "email": "jordi@panaderia.example", "company_name": "Panadería Puig",
			"industry": "food", "employee_range": "11-50", "revenue": 850_000.0, "ebitda": 95_000.0,
			"final_valuation": 420_000.0, "valuation_type": "sell", "location": "Barcelona",
			"status": "new", "utm_source": "linkedin", "lead_form_id": form, "created_at": day(3),
		}},
		{models.OriginContact, sources.Record{
			"full_name": "Marta Gil", "email": "MARTA@acme.example", "company": "Acme",
			"sector": "logistics", "company_size": "51-200", "message": "Following up on my valuation",
			"status": "contacted", "crm_status": "contacted", "utm_source": "google",
			"company_id": acme, "acquisition_channel_id": ads, "email_sent": true, "created_at": day(5),
		}},
		{models.OriginCollaborator, sources.Record{
			"full_name": "Elena Soto", "email": "elena@advisors.example", "company": "Soto Advisors",
			"profession": "lawyer", "experience": "12 years", "motivation": "Referral partnership",
			"status": "pending", "created_at": day(2),
		}},
		{models.OriginAcquisition, sources.Record{
			"full_name": "Pablo Martín", "email": "pablo@capital.example", "company": "Martín Capital",
			"sectors_of_interest": "logistics, healthcare", "investment_budget": "1M-5M",
			"preferred_location": "Valencia", "status": "new", "crm_status": "opportunity",
			"assigned_to": luis, "utm_source": "newsletter", "acquisition_channel_id": ads, "created_at": day(4),
		}},
		{models.OriginInquiry, sources.Record{
			"full_name": "Pablo Martín", "email": "pablo@capital.example", "company": "Martín Capital",
			"target_sector": "logistics", "investment_range": "1M-5M", "preferred_location": "Valencia",
			"status": "new", "company_id": acme, "utm_source": "newsletter", "created_at": day(6),
		}},
		{models.OriginGeneral, sources.Record{
			"full_name": "Lucía Navarro", "email": "lucia@clinic.example", "company": "Clínica Navarro",
			"service_type": "due diligence", "message": "Need help preparing a sale",
			"status": "new", "utm_source": "organic", "lead_form_id": form,
			"email_sent": true, "created_at": day(7),
		}},
		{models.OriginAdvisor, sources.Record{
			"name": "Sergio León", "email": "sergio@leonpartners.example", "firm_name": "León Partners",
			"sector": "consulting", "employee_range": "1-10", "revenue": 300_000.0, "ebitda": 40_000.0,
			"final_valuation": 1_250_000.0, "status": "new", "created_at": day(8),
		}},
		{models.OriginGeneral, sources.Record{
			"full_name": "Anonymous visitor", "service_type": "other",
			"message": "Just browsing", "status": "new", "created_at": day(9),
		}},
	}

	for _, row := range rows {
		if _, err := repo.InsertLead(ctx, row.origin, row.rec); err != nil {
			return summary, fmt.Errorf("failed to seed %s lead: %w", row.origin, err)
		}
		summary.Leads[row.origin]++
	}
	return summary, nil
}
