package core

// normalize.go maps free-form CSV input onto canonical values.
//
// Everything here is a pure function over fixed lookup tables:
//   - NormalizeHeader: column header synonyms -> canonical field names
//   - ParseDate: five literal date patterns -> YYYY-MM-DD
//   - NormalizeStatus: status aliases -> one of the six canonical statuses
//   - ParseBool: truthy tokens -> bool (never fails)
//   - ResolveVisaSponsorship: explicit value, else known-sponsor fallback
//
// The tables are unexported and never written after init, so concurrent
// imports can read them freely.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// headerSynonyms is keyed by the lower-cased, alphanumeric-only header.
var headerSynonyms = map[string]string{
	"id":            FieldID,
	"applicationid": FieldID,

	"company":      FieldCompany,
	"companyname":  FieldCompany,
	"employer":     FieldCompany,
	"organization": FieldCompany,
	"organisation": FieldCompany,
	"org":          FieldCompany,

	"role":          FieldRole,
	"position":      FieldRole,
	"jobtitle":      FieldRole,
	"title":         FieldRole,
	"positiontitle": FieldRole,
	"job":           FieldRole,

	"dateapplied":     FieldDateApplied,
	"date":            FieldDateApplied,
	"applieddate":     FieldDateApplied,
	"appliedon":       FieldDateApplied,
	"applicationdate": FieldDateApplied,
	"applied":         FieldDateApplied,

	"status":            FieldStatus,
	"applicationstatus": FieldStatus,
	"stage":             FieldStatus,

	"visasponsorship": FieldVisaSponsorship,
	"visa":            FieldVisaSponsorship,
	"h1b":             FieldVisaSponsorship,
	"sponsor":         FieldVisaSponsorship,
	"sponsorship":     FieldVisaSponsorship,
	"visasponsor":     FieldVisaSponsorship,

	"notes":    FieldNotes,
	"note":     FieldNotes,
	"comments": FieldNotes,
	"comment":  FieldNotes,

	"resumeurl":  FieldResumeURL,
	"resume":     FieldResumeURL,
	"resumelink": FieldResumeURL,
	"cv":         FieldResumeURL,
}

// NormalizeHeader maps a raw column header to its canonical field name.
// Unrecognized headers are returned unchanged.
func NormalizeHeader(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if field, ok := headerSynonyms[b.String()]; ok {
		return field
	}
	return raw
}

// datePattern is one literal date layout. The capture group order of each
// regex is mapped to year/month/day by the index fields.
type datePattern struct {
	name             string
	re               *regexp.Regexp
	year, month, day int
}

var (
	isoDate   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	slashDate = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	dashDate  = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
)

// datePatterns are tried in order. Ambiguous day/month input resolves
// month-first; the day-first variant only runs when month-first is not a
// real calendar date. Existing exports depend on this order.
var datePatterns = []datePattern{
	{name: "YYYY-MM-DD", re: isoDate, year: 1, month: 2, day: 3},
	{name: "MM/DD/YYYY", re: slashDate, year: 3, month: 1, day: 2},
	{name: "DD/MM/YYYY", re: slashDate, year: 3, month: 2, day: 1},
	{name: "MM-DD-YYYY", re: dashDate, year: 3, month: 1, day: 2},
	{name: "DD-MM-YYYY", re: dashDate, year: 3, month: 2, day: 1},
}

// ParseDate converts a date string to canonical YYYY-MM-DD form.
// Returns false if no pattern matches or the date does not exist.
func ParseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[p.year])
		month, _ := strconv.Atoi(m[p.month])
		day, _ := strconv.Atoi(m[p.day])

		if d, ok := calendarDate(year, month, day); ok {
			return d, true
		}
	}
	return "", false
}

// calendarDate round-trips y/m/d through time.Date; overflow such as
// April 31 normalizes to another day and is rejected.
func calendarDate(year, month, day int) (string, bool) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

// statusSynonyms is keyed by the lower-cased, trimmed status text.
var statusSynonyms = map[string]Status{
	"applied":               StatusApplied,
	"submitted":             StatusApplied,
	"application sent":      StatusApplied,
	"application submitted": StatusApplied,
	"sent":                  StatusApplied,
	"pending":               StatusApplied,
	"in review":             StatusApplied,
	"under review":          StatusApplied,

	"phone screen":     StatusPhoneScreen,
	"phone":            StatusPhoneScreen,
	"phone interview":  StatusPhoneScreen,
	"screening":        StatusPhoneScreen,
	"screen":           StatusPhoneScreen,
	"recruiter call":   StatusPhoneScreen,
	"recruiter screen": StatusPhoneScreen,
	"hr screen":        StatusPhoneScreen,
	"initial call":     StatusPhoneScreen,

	"technical interview": StatusTechnicalInterview,
	"technical":           StatusTechnicalInterview,
	"tech interview":      StatusTechnicalInterview,
	"technical screen":    StatusTechnicalInterview,
	"coding interview":    StatusTechnicalInterview,
	"coding challenge":    StatusTechnicalInterview,
	"take home":           StatusTechnicalInterview,
	"take-home":           StatusTechnicalInterview,
	"online assessment":   StatusTechnicalInterview,
	"assessment":          StatusTechnicalInterview,
	"oa":                  StatusTechnicalInterview,
	"interview":           StatusTechnicalInterview,
	"interviewing":        StatusTechnicalInterview,

	"final round":     StatusFinalRound,
	"final":           StatusFinalRound,
	"final interview": StatusFinalRound,
	"onsite":          StatusFinalRound,
	"on-site":         StatusFinalRound,
	"on site":         StatusFinalRound,
	"in-person":       StatusFinalRound,
	"in person":       StatusFinalRound,
	"superday":        StatusFinalRound,
	"panel":           StatusFinalRound,

	"offer":          StatusOffer,
	"offered":        StatusOffer,
	"offer received": StatusOffer,
	"offer accepted": StatusOffer,
	"hired":          StatusOffer,
	"accepted":       StatusOffer,

	"rejected":     StatusRejected,
	"rejection":    StatusRejected,
	"declined":     StatusRejected,
	"not selected": StatusRejected,
	"no offer":     StatusRejected,
	"closed":       StatusRejected,
}

// NormalizeStatus maps a free-text status to its canonical value.
func NormalizeStatus(s string) (Status, bool) {
	st, ok := statusSynonyms[strings.ToLower(strings.TrimSpace(s))]
	return st, ok
}

var truthyTokens = map[string]bool{
	"true":    true,
	"yes":     true,
	"y":       true,
	"1":       true,
	"checked": true,
	"on":      true,
	"enabled": true,
}

// ParseBool interprets v as a boolean. Booleans pass through; strings are
// matched case-insensitively against the truthy tokens. Anything else is false.
func ParseBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case *bool:
		return b != nil && *b
	case string:
		return truthyTokens[strings.ToLower(strings.TrimSpace(b))]
	default:
		return false
	}
}

// knownSponsors is the list of companies that commonly sponsor work visas.
var knownSponsors = map[string]struct{}{
	"google":     {},
	"meta":       {},
	"amazon":     {},
	"microsoft":  {},
	"apple":      {},
	"netflix":    {},
	"nvidia":     {},
	"salesforce": {},
	"oracle":     {},
	"ibm":        {},
	"intel":      {},
	"adobe":      {},
	"uber":       {},
	"airbnb":     {},
	"stripe":     {},
	"linkedin":   {},
	"databricks": {},
	"snowflake":  {},
	"spotify":    {},
	"cisco":      {},
}

// KnownSponsor reports whether company is on the known-sponsor list.
func KnownSponsor(company string) bool {
	_, ok := knownSponsors[strings.ToLower(strings.TrimSpace(company))]
	return ok
}

// ResolveVisaSponsorship parses an explicit sponsorship value. When raw is
// blank it falls back to the known-sponsor list for company.
func ResolveVisaSponsorship(raw, company string) bool {
	if strings.TrimSpace(raw) != "" {
		return ParseBool(raw)
	}
	return KnownSponsor(company)
}
