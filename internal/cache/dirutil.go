package cache

import "os"

// readDirNames lists dir's entries, treating a missing directory as empty
// rather than an error — both stage/work/fetch/install not yet created and
// already-cleaned-up directories are valid "no contents" states.
func readDirNames(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return entries, nil
}
