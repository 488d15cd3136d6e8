package dhl

import (
	"sync/atomic"
	"time"
)

// Country is one row of the ISO reference table.
type Country struct {
	Code     string
	Name     string
	Currency string
}

// ServiceArea maps a DHL routing code to a display city name,
// optionally restricted to a postal range.
type ServiceArea struct {
	Country    string
	Code       string
	CityName   string
	PostalLow  string
	PostalHigh string
}

// Snapshot is an immutable view of the reference data the core
// consumes: supported countries, currency whitelist, service-area to
// city mapping, DTP-enabled destinations and holiday calendars.
// Readers hold the snapshot for the duration of one call; the outer
// layer refreshes by swapping whole snapshots through a Store.
type Snapshot struct {
	countries    map[string]Country
	currencies   map[string]struct{}
	serviceAreas map[string][]ServiceArea
	dtpCountries map[string]struct{}
	holidays     map[string]map[string]struct{}
}

// NewSnapshot builds an immutable snapshot from reference rows.
// Holiday dates are keyed per ISO-2 country.
func NewSnapshot(countries []Country, areas []ServiceArea, dtp []string, holidays map[string][]time.Time) *Snapshot {
	s := &Snapshot{
		countries:    make(map[string]Country, len(countries)),
		currencies:   make(map[string]struct{}),
		serviceAreas: make(map[string][]ServiceArea),
		dtpCountries: make(map[string]struct{}, len(dtp)),
		holidays:     make(map[string]map[string]struct{}),
	}
	for _, c := range countries {
		s.countries[c.Code] = c
		if c.Currency != "" {
			s.currencies[c.Currency] = struct{}{}
		}
	}
	for _, a := range areas {
		key := a.Country + "/" + a.Code
		s.serviceAreas[key] = append(s.serviceAreas[key], a)
	}
	for _, code := range dtp {
		s.dtpCountries[code] = struct{}{}
	}
	for country, dates := range holidays {
		days := make(map[string]struct{}, len(dates))
		for _, d := range dates {
			days[d.Format("2006-01-02")] = struct{}{}
		}
		s.holidays[country] = days
	}
	return s
}

// Country looks up a supported country by ISO-2 code.
func (s *Snapshot) Country(code string) (Country, bool) {
	c, ok := s.countries[code]
	return c, ok
}

// SupportsCountry reports whether the ISO-2 code is in the supported set.
func (s *Snapshot) SupportsCountry(code string) bool {
	_, ok := s.countries[code]
	return ok
}

// SupportsCurrency reports whether the ISO-3 currency is whitelisted.
func (s *Snapshot) SupportsCurrency(code string) bool {
	_, ok := s.currencies[code]
	return ok
}

// DTPEnabled reports whether the destination supports Duties & Taxes Paid.
func (s *Snapshot) DTPEnabled(code string) bool {
	_, ok := s.dtpCountries[code]
	return ok
}

// CityForServiceArea resolves a service-area code to its display city
// name, honoring postal-range restrictions when a postal code is given.
func (s *Snapshot) CityForServiceArea(country, area, postal string) (string, bool) {
	entries, ok := s.serviceAreas[country+"/"+area]
	if !ok {
		return "", false
	}
	for _, e := range entries {
		if e.PostalLow == "" && e.PostalHigh == "" {
			return e.CityName, true
		}
		if postal >= e.PostalLow && postal <= e.PostalHigh {
			return e.CityName, true
		}
	}
	return "", false
}

// IsHoliday reports whether t falls on a configured holiday for the country.
func (s *Snapshot) IsHoliday(country string, t time.Time) bool {
	days, ok := s.holidays[country]
	if !ok {
		return false
	}
	_, ok = days[t.Format("2006-01-02")]
	return ok
}

// IsBusinessDay reports whether t is a weekday and not a holiday.
func (s *Snapshot) IsBusinessDay(country string, t time.Time) bool {
	wd := t.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !s.IsHoliday(country, t)
}

// Store holds the current reference-data snapshot. Replace swaps the
// whole snapshot atomically; in-flight calls keep reading the snapshot
// they pinned at entry.
type Store struct {
	p atomic.Pointer[Snapshot]
}

// NewStore creates a store seeded with the given snapshot.
func NewStore(s *Snapshot) *Store {
	st := &Store{}
	st.p.Store(s)
	return st
}

// Load returns the current snapshot.
func (st *Store) Load() *Snapshot {
	return st.p.Load()
}

// Replace atomically installs a new snapshot.
func (st *Store) Replace(s *Snapshot) {
	st.p.Store(s)
}

// DefaultSnapshot returns the built-in supported-country set, currency
// whitelist and DTP destinations. Deployments replace it with their
// maintained reference data at startup.
func DefaultSnapshot() *Snapshot {
	countries := []Country{
		{"PA", "Panama", "PAB"},
		{"US", "United States", "USD"},
		{"CA", "Canada", "CAD"},
		{"MX", "Mexico", "MXN"},
		{"CO", "Colombia", "COP"},
		{"CR", "Costa Rica", "CRC"},
		{"GT", "Guatemala", "GTQ"},
		{"HN", "Honduras", "HNL"},
		{"NI", "Nicaragua", "NIO"},
		{"SV", "El Salvador", "USD"},
		{"DO", "Dominican Republic", "DOP"},
		{"EC", "Ecuador", "USD"},
		{"PE", "Peru", "PEN"},
		{"CL", "Chile", "CLP"},
		{"AR", "Argentina", "ARS"},
		{"BR", "Brazil", "BRL"},
		{"UY", "Uruguay", "UYU"},
		{"PY", "Paraguay", "PYG"},
		{"BO", "Bolivia", "BOB"},
		{"VE", "Venezuela", "VES"},
		{"ES", "Spain", "EUR"},
		{"FR", "France", "EUR"},
		{"DE", "Germany", "EUR"},
		{"IT", "Italy", "EUR"},
		{"NL", "Netherlands", "EUR"},
		{"GB", "United Kingdom", "GBP"},
		{"CN", "China", "CNY"},
		{"JP", "Japan", "JPY"},
		{"AU", "Australia", "AUD"},
	}
	areas := []ServiceArea{
		{Country: "PA", Code: "PTY", CityName: "Panama City"},
		{Country: "CO", Code: "BOG", CityName: "Bogota"},
		{Country: "US", Code: "MIA", CityName: "Miami"},
		{Country: "US", Code: "JFK", CityName: "New York"},
		{Country: "MX", Code: "MEX", CityName: "Mexico City"},
	}
	dtp := []string{"US", "CA", "GB", "DE", "FR", "ES", "IT", "NL", "JP", "AU"}
	return NewSnapshot(countries, areas, dtp, nil)
}
