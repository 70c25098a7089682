// Package models defines the domain types for notecache.
package models

import "time"

// Note is a named text blob persisted as <cache>/<name>.txt.
// In list results Name is the full file name, extension included.
type Note struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Op names a note mutation.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Activity is one journal entry describing a successful mutation.
type Activity struct {
	ID   string    `json:"id"`
	Op   Op        `json:"op"`
	Name string    `json:"name"`
	Size int       `json:"size"`
	At   time.Time `json:"at"`
}
