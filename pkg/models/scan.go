package models

import "time"

// ScanResult is the serializable summary of a completed scan, written by
// the JSON exporter and printed by the CLI footer.
type ScanResult struct {
	ScanID    string        `json:"scan_id" yaml:"scan_id"`
	Root      string        `json:"root" yaml:"root"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Domains   int           `json:"domains" yaml:"domains"`
	IPs       int           `json:"ips" yaml:"ips"`
	Edges     int           `json:"edges" yaml:"edges"`
	Config    Config        `json:"config" yaml:"config"`
}
