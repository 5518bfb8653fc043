package inmemdb

import (
	"sync"

	"github.com/trezcool/carline/core/campus"
	"github.com/trezcool/carline/core/history"
	"github.com/trezcool/carline/core/metrics"
	"github.com/trezcool/carline/core/queue"
	"github.com/trezcool/carline/core/student"
)

type (
	snapshotKey struct {
		campusID string
		period   metrics.Period
		label    string
	}

	// DB keeps every table in memory behind a single lock.
	DB struct {
		mutex     sync.RWMutex
		entries   map[string]queue.Entry
		history   []history.Record
		snapshots map[snapshotKey]metrics.Snapshot
		campuses  map[string]campus.Campus
		students  map[string]student.Student
	}
)

func Open() *DB {
	return &DB{
		entries:   make(map[string]queue.Entry),
		snapshots: make(map[snapshotKey]metrics.Snapshot),
		campuses:  make(map[string]campus.Campus),
		students:  make(map[string]student.Student),
	}
}

// AddCampus inserts or replaces a directory record.
func (db *DB) AddCampus(cmps ...campus.Campus) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	for _, c := range cmps {
		db.campuses[c.ID] = c
	}
}

// AddStudent inserts or replaces a student record.
func (db *DB) AddStudent(students ...student.Student) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	for _, s := range students {
		db.students[s.ID] = s
	}
}

// AddHistory appends raw history records.
func (db *DB) AddHistory(recs ...history.Record) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.history = append(db.history, recs...)
}
