// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package history stores the hotspots seen over time in a SQLite database.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/maruel/lepton-overlay/overlay"
)

// Hotspot is one annotated hotspot of one frame, in display coordinates.
type Hotspot struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	Frame     uint64    `gorm:"index" json:"frame"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	W         int       `json:"w"`
	H         int       `json:"h"`
	CX        int       `json:"cx"`
	CY        int       `json:"cy"`
	Celsius   float64   `json:"celsius"`
}

// Store is a hotspot database.
type Store struct {
	db *gorm.DB
}

// Open opens or creates the database at path. Use ":memory:" for a
// transient database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
	}
	gormLogger := logger.New(
		log.StandardLogger(),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	// SQLite serializes writes anyway, and each connection to ":memory:" is a
	// different database.
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&Hotspot{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("history: migration failed: %w", err)
	}
	return &Store{db: db}, nil
}

// Observe records the annotations of frame seq seen at t.
func (s *Store) Observe(seq uint64, t time.Time, anns []overlay.Annotation) error {
	if len(anns) == 0 {
		return nil
	}
	rows := make([]Hotspot, len(anns))
	for i, a := range anns {
		rows[i] = Hotspot{
			CreatedAt: t,
			Frame:     seq,
			X:         a.Rect.Min.X,
			Y:         a.Rect.Min.Y,
			W:         a.Rect.Dx(),
			H:         a.Rect.Dy(),
			CX:        a.Cross.X,
			CY:        a.Cross.Y,
			Celsius:   a.Celsius,
		}
	}
	if err := s.db.Create(&rows).Error; err != nil {
		return fmt.Errorf("history: %w", err)
	}
	return nil
}

// Recent returns up to limit hotspots, most recent first.
func (s *Store) Recent(limit int) ([]Hotspot, error) {
	var out []Hotspot
	if err := s.db.Order("created_at desc, id desc").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return out, nil
}

// Hottest returns the hottest hotspot recorded since t.
func (s *Store) Hottest(since time.Time) (*Hotspot, error) {
	var out Hotspot
	err := s.db.Where("created_at >= ?", since).Order("celsius desc").First(&out).Error
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return &out, nil
}

// Prune deletes the hotspots older than before and returns how many were
// deleted.
func (s *Store) Prune(before time.Time) (int64, error) {
	res := s.db.Where("created_at < ?", before).Delete(&Hotspot{})
	if res.Error != nil {
		return 0, fmt.Errorf("history: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
