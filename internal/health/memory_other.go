//go:build !unix

package health

import "errors"

func rusageRSS() (uint64, error) {
	return 0, errors.New("getrusage not available")
}
