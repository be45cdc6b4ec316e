package domain

import "errors"

var ErrItemNotFound = errors.New("item not found")
var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("user already exists")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrForbidden = errors.New("permission denied")
var ErrAccountBanned = errors.New("account banned")
var ErrAccountMuted = errors.New("account muted")
var ErrOwnerProtected = errors.New("owner accounts cannot be modified")
var ErrInvalidRating = errors.New("rating must be between 1 and 5")
var ErrInvalidCategory = errors.New("category name required")
