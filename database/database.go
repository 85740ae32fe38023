package database

import (
	"gorm.io/gorm"
)

type Database struct {
	projectRepo    *ProjectRepo
	userRepo       *UserRepo
	invitationRepo *InvitationRepo
	cacheEntryRepo *CacheEntryRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		projectRepo:    NewProjectRepo(db),
		userRepo:       NewUserRepo(db),
		invitationRepo: NewInvitationRepo(db),
		cacheEntryRepo: NewCacheEntryRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) ProjectRepo() *ProjectRepo {
	return d.projectRepo
}

func (d Database) UserRepo() *UserRepo {
	return d.userRepo
}

func (d Database) InvitationRepo() *InvitationRepo {
	return d.invitationRepo
}

func (d Database) CacheEntryRepo() *CacheEntryRepo {
	return d.cacheEntryRepo
}

// offset converts a 1-based page number into a row offset.
func offset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}
