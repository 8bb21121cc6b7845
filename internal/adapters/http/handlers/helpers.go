package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"regexp"
	"time"

	"github.com/labstack/echo/v4"
)

// Status shortcuts shared by every handler. Error responses carry no body;
// the status code is the contract.

func badRequest(c echo.Context) error { return c.NoContent(http.StatusBadRequest) }

func notFound(c echo.Context) error { return c.NoContent(http.StatusNotFound) }

func preconditionFailed(c echo.Context) error { return c.NoContent(http.StatusPreconditionFailed) }

func noContent(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

func created(c echo.Context, body any) error { return c.JSON(http.StatusCreated, body) }

// issued acknowledges an asynchronous mutation with its dispatch time.
func issued(c echo.Context) error {
	return c.JSON(http.StatusAccepted, map[string]int64{"issued": time.Now().Unix()})
}

// errMalformed is returned by readData for any parse or rule failure.
var errMalformed = errors.New("malformed request body")

// fieldKind names the JSON type a rule expects.
type fieldKind int

const (
	kindString fieldKind = iota
	kindInt
	kindArray
	kindObject
)

// fieldRule validates one body field. A value passes when its type
// matches and, if a regex is configured, the value matches it at position
// zero. NilOK admits absent or null values regardless.
type fieldRule struct {
	Kind  fieldKind
	NilOK bool
	Regex *regexp.Regexp
}

// readData parses the request body as a JSON object and applies the given
// field rules. Any parse error or rule failure yields errMalformed.
func readData(c echo.Context, rules map[string]fieldRule) (map[string]any, error) {
	data, err := decodeObject(c)
	if err != nil {
		return nil, err
	}

	for key, rule := range rules {
		v, present := data[key]
		if !present || v == nil {
			if rule.NilOK {
				continue
			}
			return nil, errMalformed
		}
		if !rule.matches(v) {
			return nil, errMalformed
		}
	}

	return data, nil
}

// decodeObject parses the request body as a JSON object.
func decodeObject(c echo.Context) (map[string]any, error) {
	var data map[string]any
	if err := json.NewDecoder(c.Request().Body).Decode(&data); err != nil {
		return nil, errMalformed
	}
	if data == nil {
		return nil, errMalformed
	}
	return data, nil
}

func (r fieldRule) matches(v any) bool {
	switch r.Kind {
	case kindString:
		s, ok := v.(string)
		if !ok {
			return false
		}
		if r.Regex == nil {
			return true
		}
		loc := r.Regex.FindStringIndex(s)
		return loc != nil && loc[0] == 0
	case kindInt:
		f, ok := v.(float64)
		return ok && f == math.Trunc(f)
	case kindArray:
		_, ok := v.([]any)
		return ok
	case kindObject:
		_, ok := v.(map[string]any)
		return ok
	default:
		return false
	}
}

// intFrom extracts an integer from a decoded JSON value.
func intFrom(v any) (int64, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int64(f), true
}
