package db

import "github.com/cpansec/cpan-vulndb/cpansa"

// Release is one {date, version} pair of a distribution's history, kept in
// the order the release service reported (ascending by date).
type Release struct {
	Date    string `json:"date"`
	Version string `json:"version"`
}

// Package is one advisory-bearing distribution with its resolved release
// facts. A Package without releases never reaches the final Database.
type Package struct {
	Advisories []cpansa.Advisory `json:"advisories"`
	Versions   []Release         `json:"versions"`
	MainModule string            `json:"main_module"`
}

// Database is the complete vulnerability database built by one run.
type Database struct {
	Packages        map[string]*Package `json:"db"`
	ModuleToPackage map[string]string   `json:"module2dist"`
}
