// Package inmemdb provides map-backed repositories for tests.
package inmemdb

import (
	"sync"

	"github.com/darasapp/darasa/core/attendance"
	"github.com/darasapp/darasa/core/user"
)

type DB struct {
	mutex      sync.RWMutex
	user       map[string]*user.User
	attendance map[string]*attendance.Record
}

func NewDB() *DB {
	return &DB{
		user:       make(map[string]*user.User),
		attendance: make(map[string]*attendance.Record),
	}
}

func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.user = make(map[string]*user.User)
	db.attendance = make(map[string]*attendance.Record)
}
