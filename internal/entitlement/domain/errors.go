package domain

import "errors"

var ErrNotFound = errors.New("entitlement not found")
