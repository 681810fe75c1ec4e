package models

import "errors"

// ErrNoState is returned by snapshot repositories when nothing has been
// saved under a name
var ErrNoState = errors.New("no saved state")
