package policy

import "time"

// Data categories served by the platform.
const (
	FuelPrices      = "FUEL_PRICES"
	MarketRates     = "MARKET_RATES"
	HazmatERG       = "HAZMAT_ERG"
	WeatherAlerts   = "WEATHER_ALERTS"
	CarrierSafety   = "CARRIER_SAFETY"
	RegulatoryRules = "REGULATORY_RULES"
	TerminalStatus  = "TERMINAL_STATUS"
	GeofenceHazards = "GEOFENCE_HAZARDS"
)

// DefaultTable returns the built-in policy table. The caller owns the map.
func DefaultTable() map[string]Policy {
	return map[string]Policy{
		FuelPrices: {
			TTL: 5 * time.Minute, StaleTTL: 10 * time.Minute,
			RefreshAhead: 0.8, Label: "Fuel prices",
		},
		MarketRates: {
			TTL: 15 * time.Minute, StaleTTL: 30 * time.Minute,
			RefreshAhead: 0.75, Label: "Spot market rates",
		},
		HazmatERG: {
			// Emergency Response Guidebook changes a few times a year.
			TTL: 24 * time.Hour, StaleTTL: 24 * time.Hour,
			RefreshAhead: 0.9, EventDriven: true, Label: "Hazmat ERG guides",
		},
		WeatherAlerts: {
			TTL: 2 * time.Minute, StaleTTL: 3 * time.Minute,
			RefreshAhead: 0.5, EventDriven: true, Label: "Weather alerts",
		},
		CarrierSafety: {
			TTL: time.Hour, StaleTTL: 2 * time.Hour,
			RefreshAhead: 0.8, EventDriven: true, Label: "Carrier safety scores",
		},
		RegulatoryRules: {
			TTL: 6 * time.Hour, StaleTTL: 12 * time.Hour,
			RefreshAhead: 0.85, EventDriven: true, Label: "Regulatory rules",
		},
		TerminalStatus: {
			TTL: time.Minute, StaleTTL: 2 * time.Minute,
			RefreshAhead: 0.7, Label: "Terminal status",
		},
		GeofenceHazards: {
			TTL: 10 * time.Minute, StaleTTL: 20 * time.Minute,
			RefreshAhead: 0.8, EventDriven: true, Label: "Geofence hazards",
		},
	}
}

// Default returns a Registry built from DefaultTable.
func Default() *Registry { return MustRegistry(DefaultTable()) }
