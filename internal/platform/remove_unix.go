//go:build !windows

package platform

func isTransientRemoveErrPossible() bool { return false }
func isTransientRemoveErr(error) bool    { return false }
