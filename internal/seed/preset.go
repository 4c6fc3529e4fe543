// Package seed fills a database with demo forum content for development and
// testing.
package seed

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ForoSeed names a foro the preset always creates.
type ForoSeed struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Preset describes how much content a seeding run produces.
type Preset struct {
	Name               string     `yaml:"name"`
	Seed               int64      `yaml:"seed"`
	Users              int        `yaml:"users"`
	Password           string     `yaml:"password"`
	Foros              []ForoSeed `yaml:"foros"`
	RandomForos        int        `yaml:"random_foros"`
	HilosPerForo       int        `yaml:"hilos_per_foro"`
	ComentariosPerHilo int        `yaml:"comentarios_per_hilo"`
	VotesPerHilo       int        `yaml:"votes_per_hilo"`
	UpvoteRatio        float64    `yaml:"upvote_ratio"`
	MaxDays            int        `yaml:"max_days"`
}

// DefaultPreset is used when no preset file is given.
func DefaultPreset() Preset {
	return Preset{
		Name:               "default",
		Users:              10,
		Password:           "Demo-Password-123!",
		RandomForos:        3,
		HilosPerForo:       5,
		ComentariosPerHilo: 3,
		VotesPerHilo:       6,
		UpvoteRatio:        0.7,
		MaxDays:            30,
	}
}

// LoadPreset reads a YAML preset; unset fields keep their defaults.
func LoadPreset(path string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, fmt.Errorf("read preset: %w", err)
	}
	return ParsePreset(data)
}

// ParsePreset decodes and validates a YAML preset.
func ParsePreset(data []byte) (Preset, error) {
	p := DefaultPreset()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Preset{}, fmt.Errorf("parse preset: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Preset{}, err
	}
	return p, nil
}

// Validate rejects presets that cannot produce a consistent dataset.
func (p Preset) Validate() error {
	switch {
	case p.Users < 1:
		return errors.New("preset needs at least one user")
	case p.Password == "":
		return errors.New("preset password is required")
	case p.HilosPerForo < 0 || p.ComentariosPerHilo < 0 || p.VotesPerHilo < 0 || p.RandomForos < 0:
		return errors.New("preset counts must not be negative")
	case p.UpvoteRatio < 0 || p.UpvoteRatio > 1:
		return errors.New("upvote_ratio must be between 0 and 1")
	case len(p.Foros)+p.RandomForos == 0:
		return errors.New("preset creates no foros")
	}
	return nil
}
