package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "examclock/internal/platform/errors"
)

type Level int

const (
	LevelSL Level = 0
	LevelHL Level = 1
)

func (l Level) String() string {
	if l == LevelHL {
		return "HL"
	}
	return "SL"
}

func (l Level) Validate() error {
	switch l {
	case LevelSL, LevelHL:
		return nil
	default:
		return fmt.Errorf("%w: unsupported level %d", apperrors.ErrInvalidInput, int(l))
	}
}

// Toggle flips between SL and HL.
func (l Level) Toggle() Level {
	if l == LevelHL {
		return LevelSL
	}
	return LevelHL
}

func ParseLevel(raw string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "HL", "1":
		return LevelHL, nil
	case "SL", "0":
		return LevelSL, nil
	default:
		return LevelSL, fmt.Errorf("%w: level must be HL or SL, got %q", apperrors.ErrInvalidInput, raw)
	}
}

// SectionSpec is the editor's description of one section before it is
// registered on a subject.
type SectionSpec struct {
	Name           string
	Hours          int
	Minutes        int
	ReadingMinutes int
}

func (s SectionSpec) Duration() time.Duration {
	return time.Duration(s.Hours)*time.Hour + time.Duration(s.Minutes)*time.Minute
}

func (s SectionSpec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: section name is required", apperrors.ErrInvalidInput)
	}
	if s.Hours < 0 || s.Minutes < 0 || s.ReadingMinutes < 0 {
		return fmt.Errorf("%w: section %q has a negative time field", apperrors.ErrInvalidInput, s.Name)
	}
	if s.Duration() <= 0 {
		return fmt.Errorf("%w: section %q needs a duration of at least one minute", apperrors.ErrInvalidInput, s.Name)
	}
	return nil
}

type Section struct {
	ID          int64
	Name        string
	Duration    time.Duration
	ReadingTime time.Duration
	InProgress  bool
	Run         bool
}

func NewSection(id int64, spec SectionSpec) *Section {
	return &Section{
		ID:          id,
		Name:        strings.TrimSpace(spec.Name),
		Duration:    spec.Duration(),
		ReadingTime: time.Duration(spec.ReadingMinutes) * time.Minute,
	}
}

// Label is the section text shown under a subject on a timer card.
func (s *Section) Label() string {
	if s.ReadingTime <= 0 {
		return s.Name
	}
	return fmt.Sprintf("%s (+%dm reading)", s.Name, int(s.ReadingTime/time.Minute))
}

type Subject struct {
	ID        int64
	Name      string
	Level     Level
	Sections  []*Section
	CreatedAt time.Time
}

func NewSubject(id int64, name string, level Level, createdAt time.Time) (*Subject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: subject name is required", apperrors.ErrInvalidInput)
	}
	if err := level.Validate(); err != nil {
		return nil, err
	}
	return &Subject{ID: id, Name: name, Level: level, CreatedAt: createdAt}, nil
}

// DisplayName renders "{name} HL" or "{name} SL".
func (s *Subject) DisplayName() string {
	return DisplayName(s.Name, s.Level)
}

func DisplayName(name string, level Level) string {
	return name + " " + level.String()
}

// NextPendingSection returns the first section in exam order that has not
// run yet, or nil when the subject is complete.
func (s *Subject) NextPendingSection() *Section {
	for _, section := range s.Sections {
		if !section.Run {
			return section
		}
	}
	return nil
}

func (s *Subject) InProgressSection() *Section {
	for _, section := range s.Sections {
		if section.InProgress {
			return section
		}
	}
	return nil
}

func (s *Subject) Completed() bool {
	return len(s.Sections) > 0 && s.NextPendingSection() == nil
}

// Reserve marks section as the single in-progress section of the subject.
func (s *Subject) Reserve(section *Section) {
	for _, other := range s.Sections {
		other.InProgress = other == section
	}
}

// Release clears any in-progress reservation without completing it.
func (s *Subject) Release() {
	for _, section := range s.Sections {
		section.InProgress = false
	}
}

// CompleteInProgress marks the reserved section as run and returns it.
func (s *Subject) CompleteInProgress() *Section {
	section := s.InProgressSection()
	if section == nil {
		return nil
	}
	section.InProgress = false
	section.Run = true
	return section
}

// ReplaceSections swaps the whole section list. New sections always start
// with clean flags.
func (s *Subject) ReplaceSections(sections []*Section) {
	for _, section := range sections {
		section.InProgress = false
		section.Run = false
	}
	s.Sections = sections
}

func (s *Subject) SameIdentity(name string, level Level) bool {
	return s.Level == level && strings.EqualFold(s.Name, strings.TrimSpace(name))
}
