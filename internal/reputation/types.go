// Package reputation implements the time-decayed, sample-weighted,
// multi-dimensional reputation engine: file-backed profiles with an
// append-only signal log.
package reputation

import "time"

// Dimension is a single named axis of reputation.
type Dimension struct {
	Score      float64   `yaml:"score" json:"score"`
	Confidence float64   `yaml:"confidence" json:"confidence"`
	SampleSize int       `yaml:"sampleSize" json:"sampleSize"`
	LastSignal time.Time `yaml:"lastSignal" json:"lastSignal"`
}

// Signal is a single atomic observation about an agent. ID
// is a synthetic identifier (not part of the dedup key) for external
// references such as notification payloads.
type Signal struct {
	ID        string    `yaml:"id,omitempty" json:"id,omitempty"`
	Source    string    `yaml:"source" json:"source"`
	Dimension string    `yaml:"dimension" json:"dimension"`
	Domain    string    `yaml:"domain,omitempty" json:"domain,omitempty"`
	Score     float64   `yaml:"score" json:"score"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	Evidence  string    `yaml:"evidence,omitempty" json:"evidence,omitempty"`
	Message   string    `yaml:"message,omitempty" json:"message,omitempty"`
}

// key returns the dedup key for a signal: (source, dimension, timestamp).
func (s Signal) key() string {
	return s.Source + "\x00" + s.Dimension + "\x00" + s.Timestamp.UTC().Format(time.RFC3339Nano)
}

// Profile is a reputation profile: one per agent DID.
type Profile struct {
	Slug             string                `yaml:"-" json:"-"`
	AgentDid         string                `yaml:"agentDid" json:"agentDid"`
	AgentName        string                `yaml:"agentName" json:"agentName"`
	Dimensions       map[string]Dimension  `yaml:"dimensions" json:"dimensions"`
	DomainCompetence map[string]Dimension  `yaml:"domainCompetence" json:"domainCompetence"`
	Signals          []Signal              `yaml:"signals" json:"signals"`
}

// NewProfile creates an empty profile for the given DID/name.
func NewProfile(slug, agentDid, agentName string) *Profile {
	return &Profile{
		Slug:             slug,
		AgentDid:         agentDid,
		AgentName:        agentName,
		Dimensions:       map[string]Dimension{},
		DomainCompetence: map[string]Dimension{},
		Signals:          []Signal{},
	}
}
