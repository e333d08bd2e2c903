package util

// FileCount is the result of CountFiles.
type FileCount struct {
	Total   int     // regular files seen
	Matched int     // files accepted by the match function
	Errors  []error // per-entry enumeration errors, in encounter order
}

// CountFiles walks path and counts regular files, and those for which match
// returns true. Unlike a rewrite run it keeps going past per-entry errors
// and collects them. progress, if non-nil, is called after every file.
func CountFiles(path string, match func(string) bool, progress func(FileCount)) (FileCount, error) {
	var fc FileCount
	w, err := NewWalker(path)
	if err != nil {
		return fc, err
	}
	for p, err := range w.All() {
		if err != nil {
			fc.Errors = append(fc.Errors, err)
			continue
		}
		fc.Total++
		if match != nil && match(p) {
			fc.Matched++
		}
		if progress != nil {
			progress(fc)
		}
	}
	return fc, nil
}
