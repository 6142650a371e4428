// ABOUTME: Shared flag sets for filter and patch options
// ABOUTME: Only flags the user actually set end up in the tool inputs
package cli

import (
	"github.com/harperreed/leadbook/handlers"
	"github.com/spf13/pflag"
)

type filterFlags struct {
	in handlers.FilterInput

	revenueMin, revenueMax     float64
	ebitdaMin, ebitdaMax       float64
	employeesMin, employeesMax int
}

func (f *filterFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.in.Preset, "preset", "", "Saved filter preset to start from")
	fs.StringVarP(&f.in.Search, "search", "q", "", "Text search over name, email, company and notes")
	fs.StringVar(&f.in.Origin, "origin", "", "Lead source (valuation, contact, collaborator, acquisition, inquiry, general, advisor)")
	fs.StringVar(&f.in.Status, "status", "", "Status or CRM status")
	fs.StringVar(&f.in.Priority, "priority", "", "Priority: hot, warm or cold")
	fs.StringVar(&f.in.EmailStatus, "email-status", "", "sent, opened, not_sent or sent_not_opened")
	fs.StringVar(&f.in.UTMSource, "utm-source", "", "UTM source")
	fs.StringVar(&f.in.Budget, "budget", "", "Investment budget band")
	fs.StringVar(&f.in.Sector, "sector", "", "Sector")
	fs.StringVar(&f.in.CompanySize, "company-size", "", "Employee range label, e.g. 11-50")
	fs.StringVar(&f.in.Location, "location", "", "Preferred location")
	fs.StringVar(&f.in.ChannelID, "channel", "", "Acquisition channel ID")
	fs.StringVar(&f.in.LeadFormID, "lead-form", "", "Lead form ID")
	fs.StringVar(&f.in.ValuationType, "valuation-type", "", "Valuation type")
	fs.StringVar(&f.in.DateFrom, "from", "", "Earliest creation date (YYYY-MM-DD)")
	fs.StringVar(&f.in.DateTo, "to", "", "Latest creation date (YYYY-MM-DD)")
	fs.Float64Var(&f.revenueMin, "revenue-min", 0, "Minimum revenue")
	fs.Float64Var(&f.revenueMax, "revenue-max", 0, "Maximum revenue")
	fs.Float64Var(&f.ebitdaMin, "ebitda-min", 0, "Minimum EBITDA")
	fs.Float64Var(&f.ebitdaMax, "ebitda-max", 0, "Maximum EBITDA")
	fs.IntVar(&f.employeesMin, "employees-min", 0, "Minimum employees")
	fs.IntVar(&f.employeesMax, "employees-max", 0, "Maximum employees")
	fs.BoolVar(&f.in.UniqueOnly, "unique", false, "Keep only the newest record per email")
	fs.BoolVar(&f.in.RepeatedOnly, "repeated", false, "Keep only emails that appear more than once")
}

// input returns the filter input with numeric bounds set only when given.
func (f *filterFlags) input(fs *pflag.FlagSet) handlers.FilterInput {
	in := f.in
	if fs.Changed("revenue-min") {
		in.RevenueMin = &f.revenueMin
	}
	if fs.Changed("revenue-max") {
		in.RevenueMax = &f.revenueMax
	}
	if fs.Changed("ebitda-min") {
		in.EBITDAMin = &f.ebitdaMin
	}
	if fs.Changed("ebitda-max") {
		in.EBITDAMax = &f.ebitdaMax
	}
	if fs.Changed("employees-min") {
		in.EmployeesMin = &f.employeesMin
	}
	if fs.Changed("employees-max") {
		in.EmployeesMax = &f.employeesMax
	}
	return in
}

type patchFlags struct {
	name, email, phone, company, sector string
	status, crmStatus, assignedTo       string
	emailSent, emailOpened              bool
	invalidation                        string
}

func (p *patchFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&p.name, "name", "", "Contact name")
	fs.StringVar(&p.email, "email", "", "Email address")
	fs.StringVar(&p.phone, "phone", "", "Phone number")
	fs.StringVar(&p.company, "company", "", "Company name")
	fs.StringVar(&p.sector, "sector", "", "Sector")
	fs.StringVar(&p.status, "status", "", "Free-form status")
	fs.StringVar(&p.crmStatus, "crm-status", "", "Pipeline status (new, contacted, qualified, opportunity, ...)")
	fs.StringVar(&p.assignedTo, "assigned-to", "", "Owner profile ID; empty clears the assignment")
	fs.BoolVar(&p.emailSent, "email-sent", false, "Whether an email was sent")
	fs.BoolVar(&p.emailOpened, "email-opened", false, "Whether the email was opened")
	fs.StringVar(&p.invalidation, "invalidation", "", "silent marks the cache stale, active refetches now (default from config)")
}

// input maps changed flags to patch fields so that an explicit empty value
// still clears a field.
func (p *patchFlags) input(fs *pflag.FlagSet) handlers.PatchInput {
	var in handlers.PatchInput
	str := func(flag string, v *string) *string {
		if fs.Changed(flag) {
			return v
		}
		return nil
	}
	in.Name = str("name", &p.name)
	in.Email = str("email", &p.email)
	in.Phone = str("phone", &p.phone)
	in.Company = str("company", &p.company)
	in.Sector = str("sector", &p.sector)
	in.Status = str("status", &p.status)
	in.CRMStatus = str("crm-status", &p.crmStatus)
	in.AssignedTo = str("assigned-to", &p.assignedTo)
	if fs.Changed("email-sent") {
		in.EmailSent = &p.emailSent
	}
	if fs.Changed("email-opened") {
		in.EmailOpened = &p.emailOpened
	}
	return in
}
