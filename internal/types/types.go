package types

import "time"

// SensorSample is one raw telemetry reading from the vehicle's IMU.
// Acceleration is in m/s², angular rate in rad/s. Speed is optional and
// reported in km/h when present.
type SensorSample struct {
	Timestamp time.Time `json:"timestamp"`
	AccX      float64   `json:"acc_x"`
	AccY      float64   `json:"acc_y"`
	AccZ      float64   `json:"acc_z"`
	GyroX     float64   `json:"gyro_x"`
	GyroY     float64   `json:"gyro_y"`
	GyroZ     float64   `json:"gyro_z"`
	Speed     *float64  `json:"speed,omitempty"`
}

// RoadAttributes describe the road at the assessed location. All fields are
// optional; zero values fall back to scorer defaults.
type RoadAttributes struct {
	RoadType       string  `json:"road_type,omitempty"`
	SpeedLimit     float64 `json:"speed_limit,omitempty"`
	RoadSurface    string  `json:"road_surface,omitempty"`
	Lighting       string  `json:"lighting,omitempty"`
	TrafficSignals *bool   `json:"traffic_signals,omitempty"`
}

// LocationRecord is the geographic input for one assessment.
type LocationRecord struct {
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Road      *RoadAttributes `json:"road,omitempty"`
}

// WeatherConditions describe the weather at assessment time.
type WeatherConditions struct {
	PrecipitationMM float64 `json:"precipitation_mm"`
	TemperatureC    float64 `json:"temperature_c"`
	VisibilityKM    float64 `json:"visibility_km"`
	WindSpeedKMH    float64 `json:"wind_speed_kmh"`
	Conditions      string  `json:"conditions"`
}

// TrafficConditions describe the traffic at assessment time.
type TrafficConditions struct {
	Density           string  `json:"density"`
	AverageSpeedKMH   float64 `json:"average_speed_kmh"`
	SpeedLimitKMH     float64 `json:"speed_limit_kmh"`
	ActiveIncidents   int     `json:"active_incidents"`
	ConstructionZones int     `json:"construction_zones"`
}

// ContextRecord is the situational input for one assessment.
type ContextRecord struct {
	Timestamp time.Time          `json:"timestamp"`
	Weather   *WeatherConditions `json:"weather,omitempty"`
	Traffic   *TrafficConditions `json:"traffic,omitempty"`
}

// AssessRequest is the request body for the assess endpoint.
type AssessRequest struct {
	DriverID    string         `json:"driver_id,omitempty"`
	Samples     []SensorSample `json:"samples"`
	Location    *LocationRecord `json:"location,omitempty"`
	Context     *ContextRecord  `json:"context,omitempty"`
	BasePremium float64        `json:"base_premium,omitempty"`
}

// BatchAssessRequest carries multiple independent assessment requests.
type BatchAssessRequest struct {
	Requests []AssessRequest `json:"requests" binding:"required"`
}

// RoutePoint is one coordinate along a route to be risk-scored.
type RoutePoint struct {
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Road      *RoadAttributes `json:"road,omitempty"`
}

// RouteAssessRequest is the request body for the route assessment endpoint.
type RouteAssessRequest struct {
	Points []RoutePoint `json:"points" binding:"required"`
}
