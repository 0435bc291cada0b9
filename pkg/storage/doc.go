// Package storage owns file persistence for the cache and the exported
// tables.
//
// A Manager is rooted at one directory. Writes go to a temporary file that
// is synced and renamed over the target, so a crash mid-write leaves the
// previous version in place.
//
//	manager, err := storage.NewManager("cache")
//	if err != nil {
//	    return err
//	}
//	err = manager.WriteJSON("registry.json", registry)
package storage
