package handler // handler defines http handlers

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
// The JWT middleware stores the subject claim, which arrives as a float64
// after JSON decoding.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// optionalUserID is like getUserID but returns nil instead of an error for
// anonymous requests. Used on routes where authentication is optional.
func optionalUserID(c echo.Context) *uint64 {
	if id, err := getUserID(c); err == nil {
		return &id
	}
	return nil
}
