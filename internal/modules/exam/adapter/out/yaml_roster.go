package out

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"examclock/internal/modules/exam/domain"
	apperrors "examclock/internal/platform/errors"
)

type rosterFile struct {
	Subjects []rosterSubject `yaml:"subjects"`
}

type rosterSubject struct {
	Name     string          `yaml:"name"`
	Level    string          `yaml:"level"`
	Sections []rosterSection `yaml:"sections"`
}

type rosterSection struct {
	Name           string `yaml:"name"`
	Hours          int    `yaml:"hours"`
	Minutes        int    `yaml:"minutes"`
	ReadingMinutes int    `yaml:"reading_minutes"`
}

// YAMLRosterSource reads subject rosters of the form
//
//	subjects:
//	  - name: Math
//	    level: HL
//	    sections:
//	      - {name: Paper 1, hours: 2, minutes: 0, reading_minutes: 5}
//
// Only the level is checked here. Names and section times are validated by
// the scheduler on import, so one bad section skips a subject, not the file.
type YAMLRosterSource struct{}

func NewYAMLRosterSource() YAMLRosterSource {
	return YAMLRosterSource{}
}

func (YAMLRosterSource) Load(_ context.Context, path string) ([]domain.RosterEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: roster %s", apperrors.ErrNotFound, path)
		}
		return nil, fmt.Errorf("read roster: %w", err)
	}
	var file rosterFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: parse roster %s: %v", apperrors.ErrInvalidInput, path, err)
	}
	out := make([]domain.RosterEntry, 0, len(file.Subjects))
	for idx, subject := range file.Subjects {
		level, err := domain.ParseLevel(subject.Level)
		if err != nil {
			return nil, fmt.Errorf("roster subject %d (%s): %w", idx+1, subject.Name, err)
		}
		entry := domain.RosterEntry{Name: subject.Name, Level: level}
		for _, section := range subject.Sections {
			entry.Sections = append(entry.Sections, domain.SectionSpec{
				Name:           section.Name,
				Hours:          section.Hours,
				Minutes:        section.Minutes,
				ReadingMinutes: section.ReadingMinutes,
			})
		}
		out = append(out, entry)
	}
	return out, nil
}
