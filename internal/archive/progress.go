package archive

// Progress reports extraction/creation progress (§4.4). Totals are
// optional: streaming formats (e.g. tar.gz) never know TotalFiles /
// TotalBytes in advance, while archive_create_tar_zst's pre-scan always
// supplies them.
type Progress struct {
	FilesProcessed int
	BytesProcessed int64
	TotalFiles     *int
	TotalBytes     *int64
}

// ProgressFunc is called after each regular file is processed. Returning
// false aborts the operation with envyerr.UserAbortError.
type ProgressFunc func(Progress) bool

func reportOK(cb ProgressFunc, p Progress) bool {
	if cb == nil {
		return true
	}
	return cb(p)
}
