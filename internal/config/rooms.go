package config

import (
	"fmt"
	"os"
	"strings"

	"jethotel/internal/models"

	"gopkg.in/yaml.v3"
)

// RoomConfig is one entry of the room catalogue.
type RoomConfig struct {
	Name        string `yaml:"name"`
	Price       string `yaml:"price"` // "150.00"
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
	Available   *bool  `yaml:"available,omitempty"`
}

// RoomsConfig is the root of rooms.yaml.
type RoomsConfig struct {
	Rooms []RoomConfig `yaml:"rooms"`
}

// DefaultRooms is the catalogue used when no rooms file exists.
func DefaultRooms() *RoomsConfig {
	return &RoomsConfig{Rooms: []RoomConfig{
		{Name: "Deluxe Room", Price: "150.00", Description: "Spacious room with a king-size bed and city view.", Image: "deluxe.jpg"},
		{Name: "Suite", Price: "250.00", Description: "Separate living area with a kitchenette.", Image: "suite.jpg"},
		{Name: "Standard Room", Price: "100.00", Description: "Comfortable room with a queen-size bed.", Image: "standard.jpg"},
		{Name: "Executive Room", Price: "200.00", Description: "Work desk and executive lounge access.", Image: "executive.jpg"},
		{Name: "Family Room", Price: "180.00", Description: "Two queen beds, sleeps four.", Image: "family.jpg"},
		{Name: "Penthouse", Price: "350.00", Description: "Top floor with a private terrace.", Image: "penthouse.jpg"},
		{Name: "Ocean View Room", Price: "220.00", Description: "Balcony overlooking the ocean.", Image: "ocean.jpg"},
		{Name: "Garden View Room", Price: "160.00", Description: "Quiet room facing the garden.", Image: "garden.jpg"},
		{Name: "Presidential Suite", Price: "400.00", Description: "Two bedrooms, dining room and butler service.", Image: "presidential.jpg"},
	}}
}

// LoadRoomsConfig loads and validates the room catalogue from a YAML file.
func LoadRoomsConfig(path string) (*RoomsConfig, error) {
	if path == "" {
		path = "configs/rooms.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rooms config: %w", err)
	}

	var cfg RoomsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse rooms config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks names are unique and every room converts to a valid model.
func (c *RoomsConfig) Validate() error {
	seen := make(map[string]bool, len(c.Rooms))
	for i, r := range c.Rooms {
		name := strings.TrimSpace(r.Name)
		if seen[name] {
			return fmt.Errorf("room %d: duplicate name %q", i, name)
		}
		seen[name] = true
		if _, err := r.Model(); err != nil {
			return fmt.Errorf("room %d: %w", i, err)
		}
	}
	return nil
}

// Model converts the entry to a Room. Rooms are available unless the file
// says otherwise.
func (r RoomConfig) Model() (*models.Room, error) {
	price, err := models.ParseCents(r.Price)
	if err != nil {
		return nil, err
	}
	room := &models.Room{
		Name:        strings.TrimSpace(r.Name),
		PriceCents:  price,
		Description: r.Description,
		Image:       r.Image,
		Available:   r.Available == nil || *r.Available,
	}
	if err := room.Validate(); err != nil {
		return nil, err
	}
	return room, nil
}

// Models converts every entry.
func (c *RoomsConfig) Models() ([]models.Room, error) {
	out := make([]models.Room, 0, len(c.Rooms))
	for _, r := range c.Rooms {
		m, err := r.Model()
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, nil
}
