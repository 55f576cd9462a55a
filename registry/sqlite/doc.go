// Package sqlite is a file-backed registry.Store: a signature catalog that
// survives process restarts without a server to run, good for a single
// host's local component registry or for development.
//
//	s, err := sqlite.New(sqlite.Options{Path: "./signatures.db"})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//	reg := registry.AsRegistry(s)
package sqlite
