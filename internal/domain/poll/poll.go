package poll

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// New validates input and builds a poll with the given id.
func New(id string, in Input) (*Poll, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	p := &Poll{ID: id}
	if err := p.Apply(in); err != nil {
		return nil, err
	}
	return p, nil
}

// Apply overwrites the editable fields. ID, StartTime and LastVoter survive.
func (p *Poll) Apply(in Input) error {
	if err := ValidateInput(in); err != nil {
		return err
	}

	timer := DefaultTimer
	if in.Timer != nil {
		timer = *in.Timer
	}

	items := make([]MediaItem, len(in.MediaItems))
	copy(items, in.MediaItems)

	p.Creator = strings.TrimSpace(in.Creator)
	p.Company = CanonicalCompany(in.Company)
	p.MediaItems = items
	p.Timer = timer
	p.ExposeThem = in.ExposeThem
	p.ExposeThemV2 = in.ExposeThemV2
	return nil
}

// ValidateInput checks required poll fields.
func ValidateInput(in Input) error {
	if strings.TrimSpace(in.Creator) == "" {
		return fmt.Errorf("%w: creator is required", ErrInvalidInput)
	}
	if len(in.MediaItems) == 0 {
		return fmt.Errorf("%w: at least one media item is required", ErrInvalidInput)
	}
	for i, item := range in.MediaItems {
		if strings.TrimSpace(item.URL) == "" {
			return fmt.Errorf("%w: media item %d has no url", ErrInvalidInput, i)
		}
		if item.Type != MediaImage && item.Type != MediaVideo {
			return fmt.Errorf("%w: media item %d has unknown type %q", ErrInvalidInput, i, item.Type)
		}
	}
	if in.Timer != nil && *in.Timer < 0 {
		return fmt.Errorf("%w: timer cannot be negative", ErrInvalidInput)
	}
	return nil
}

// CanonicalCompany trims and title-cases a company name.
func CanonicalCompany(company string) string {
	company = strings.Join(strings.Fields(company), " ")
	if company == "" {
		return ""
	}
	return cases.Title(language.English).String(company)
}

// Duplicate returns a fresh copy under a new id with no run state.
func (p *Poll) Duplicate(id string) *Poll {
	items := make([]MediaItem, len(p.MediaItems))
	copy(items, p.MediaItems)
	return &Poll{
		ID:           id,
		Creator:      p.Creator,
		Company:      p.Company,
		MediaItems:   items,
		Timer:        p.Timer,
		ExposeThem:   p.ExposeThem,
		ExposeThemV2: p.ExposeThemV2,
	}
}

// Start marks the poll active as of now.
func (p *Poll) Start(now time.Time) {
	started := now
	p.StartTime = &started
}

// RecordVoter stamps the most recent voter. It runs on every accepted vote
// whether or not a reveal policy is enabled.
func (p *Poll) RecordVoter(name string, now time.Time) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Unknown"
	}
	p.LastVoter = &LastVoter{Name: name, Timestamp: now}
}
