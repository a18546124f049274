// Package settings provides the leash tuning snapshot consumed by the
// movement calculator, and the Store that loads, hot-reloads and saves it.
//
// Settings are a plain value. The Store swaps the whole value atomically on
// every change, so readers always see a consistent snapshot without holding
// a lock:
//
//	store, err := settings.Open("./data/settings.yaml")
//	if err != nil {
//	    return err
//	}
//	go store.Watch(ctx, 2*time.Second)
//	defer store.Save()
//
//	s := store.Current()
//
// A missing file is created from Default. A file that cannot be parsed on
// open falls back to Default; a file that cannot be parsed or fails
// validation on reload keeps the previous snapshot.
package settings
