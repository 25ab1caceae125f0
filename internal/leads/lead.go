// ABOUTME: Lead record types for the scoring dashboard.
// ABOUTME: Defines the lead entity, its email type and the tri-state bounce flag.

package leads

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Type classifies a lead by the kind of mailbox it points at.
type Type string

const (
	TypeCorporate Type = "corporate"
	TypePersonal  Type = "personal"
)

// PersonalDomains are the free-mail domains used for personal leads.
var PersonalDomains = []string{"gmail.com", "yahoo.com", "hotmail.com"}

// IsPersonalDomain reports whether domain is one of the free-mail domains.
func IsPersonalDomain(domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	for _, d := range PersonalDomains {
		if d == domain {
			return true
		}
	}
	return false
}

// Bounce is the delivery state of an address. The zero value is unknown.
type Bounce int8

const (
	BounceUnknown Bounce = iota
	BounceNo
	BounceYes
)

func (b Bounce) String() string {
	switch b {
	case BounceNo:
		return "0"
	case BounceYes:
		return "1"
	default:
		return "null"
	}
}

// Value returns the numeric flag used for rate calculations; unknown counts as 0.
func (b Bounce) Value() float64 {
	if b == BounceYes {
		return 1
	}
	return 0
}

// MarshalJSON encodes the bounce flag as 0, 1 or null.
func (b Bounce) MarshalJSON() ([]byte, error) {
	switch b {
	case BounceNo:
		return []byte("0"), nil
	case BounceYes:
		return []byte("1"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts 0, 1, true, false or null.
func (b *Bounce) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "null", "":
		*b = BounceUnknown
	case "0", "false":
		*b = BounceNo
	case "1", "true":
		*b = BounceYes
	default:
		return fmt.Errorf("invalid bounce value %s: want 0, 1 or null", data)
	}
	return nil
}

// MarshalYAML encodes the bounce flag as 0, 1 or null.
func (b Bounce) MarshalYAML() (any, error) {
	switch b {
	case BounceNo:
		return 0, nil
	case BounceYes:
		return 1, nil
	default:
		return nil, nil
	}
}

// Attributes are the score inputs of a lead.
type Attributes struct {
	Type             Type    `json:"type" yaml:"type" validate:"required,oneof=corporate personal"`
	Sources          int     `json:"sources" yaml:"sources"`
	Bounce           Bounce  `json:"bounce" yaml:"bounce"`
	LastUpdatedDays  int     `json:"last_updated_days" yaml:"last_updated_days"`
	VerifiedDomain   bool    `json:"verified_domain" yaml:"verified_domain"`
	SocialPresence   bool    `json:"social_presence" yaml:"social_presence"`
	SourceConfidence float64 `json:"source_confidence" yaml:"source_confidence"`
}

// Lead is a single synthetic contact with its quality score.
type Lead struct {
	Name       string `json:"name" yaml:"name"`
	Email      string `json:"email" yaml:"email"`
	Attributes `yaml:",inline"`
	Score      float64 `json:"score" yaml:"score"`
}

// Rescore recomputes the lead's score from its attributes.
func (l *Lead) Rescore() {
	l.Score = Score(l.Attributes)
}

// Domain returns the part of the email after the @.
func (l Lead) Domain() string {
	if i := strings.LastIndex(l.Email, "@"); i >= 0 {
		return l.Email[i+1:]
	}
	return ""
}

// EmailFor derives the address for a full name at domain.
func EmailFor(name, domain string) string {
	local := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "."))
	return local + "@" + domain
}

// BounceStatus is the two-valued label used for the bounce chart.
type BounceStatus string

const (
	StatusBounced    BounceStatus = "bounced"
	StatusNotBounced BounceStatus = "not bounced"
)

// Status maps the tri-state flag onto the chart label; unknown is "not bounced".
func (b Bounce) Status() BounceStatus {
	if b == BounceYes {
		return StatusBounced
	}
	return StatusNotBounced
}

var _ json.Marshaler = Bounce(0)
