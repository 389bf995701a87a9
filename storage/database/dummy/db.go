// Package dummydb provides in-memory repositories; used in tests and by the API server when no database is configured.
package dummydb

import (
	"sync"

	"github.com/trezcool/mentora/core/curriculum"
	"github.com/trezcool/mentora/core/inbox"
	"github.com/trezcool/mentora/core/progress"
	"github.com/trezcool/mentora/core/user"
)

type (
	DB struct {
		user       *userTable
		curriculum *curriculumTable
		progress   *progressTable
		message    *messageTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	curriculumTable struct {
		sync.RWMutex
		table curriculum.Curriculum
	}

	progressTable struct {
		sync.Mutex
		table map[string]*progress.Progress
	}

	messageTable struct {
		sync.RWMutex
		table []inbox.Message
	}
)

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		curriculum: &curriculumTable{table: make(curriculum.Curriculum)},
		progress:   &progressTable{table: make(map[string]*progress.Progress)},
		message:    &messageTable{},
	}
}
