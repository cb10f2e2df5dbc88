package models

import "time"

// Point is one (timestamp, severity) sample of a projected series.
type Point struct {
	X time.Time `json:"x"`
	Y uint8     `json:"y"`
}
