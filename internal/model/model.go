// Package model contains domain entities shared across layers.
// Data shapes only; behavior lives in services.
package model

// Country is a sovereign state or territory from the world cities dataset.
type Country struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	ISO2 string `json:"iso2"`
	ISO3 string `json:"iso3"`
}

// City belongs to exactly one country.
type City struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	CountryID int64   `json:"countryId"`
}

// WeatherForecast is the demo payload rendered by the client's home page.
type WeatherForecast struct {
	Date         string `json:"date"`
	TemperatureC int    `json:"temperatureC"`
	TemperatureF int    `json:"temperatureF"`
	Summary      string `json:"summary"`
}
