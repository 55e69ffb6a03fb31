package models

import "regexp"

var regionIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Region is one regional storefront of the carrier. ID doubles as the cache
// key and the storefront subdomain.
type Region struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Valid reports whether the ID is usable as a subdomain and a file name.
func (r Region) Valid() bool {
	return regionIDPattern.MatchString(r.ID)
}

func (r Region) String() string {
	if r.Name == "" {
		return r.ID
	}
	return r.ID + " (" + r.Name + ")"
}
