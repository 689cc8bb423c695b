package entities

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// Common errors
var (
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrInvalidCustomerID = errors.New("invalid customer id")
	ErrInvalidBody       = errors.New("request body must be a JSON object")
	ErrCorruptStore      = errors.New("customer store is unreadable")
)

// IDField is the only mandatory key of a customer record.
const IDField = "id"

// Customer is an open-ended customer record. Apart from "id" no field is
// typed or validated; values are whatever JSON the client sent.
type Customer map[string]interface{}

// NewCustomer builds a record with the given id and the fields of body
// merged in. Unlike every other key, an "id" in body does not win: the
// generated id always replaces it.
func NewCustomer(id int64, body map[string]interface{}) Customer {
	c := make(Customer, len(body)+1)
	for k, v := range body {
		c[k] = v
	}
	c[IDField] = id
	return c
}

// NewID returns the identifier assigned to a record created at t: the Unix
// epoch timestamp in milliseconds.
func NewID(t time.Time) int64 {
	return t.UnixMilli()
}

// ID returns the record id as an integer. Numeric strings are accepted so
// that ids written by hand into the data file still match.
func (c Customer) ID() (int64, bool) {
	v, ok := c[IDField]
	if !ok {
		return 0, false
	}
	return toInt64(v)
}

// HasID reports whether the record's id denotes id.
func (c Customer) HasID(id int64) bool {
	got, ok := c.ID()
	return ok && got == id
}

// Merge returns a shallow merge of body over c. Top-level keys in body
// override those in c; nested values are replaced wholesale. The one
// exception is "id": a body id never replaces the stored one, so a record
// cannot be renumbered or given a non-integer id through an update.
func (c Customer) Merge(body map[string]interface{}) Customer {
	merged := make(Customer, len(c)+len(body))
	for k, v := range c {
		merged[k] = v
	}
	for k, v := range body {
		if k == IDField {
			if _, ok := c[IDField]; ok {
				continue
			}
		}
		merged[k] = v
	}
	return merged
}

// Clone returns a shallow copy of the record.
func (c Customer) Clone() Customer {
	out := make(Customer, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// ParseID parses a path parameter into a customer id.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, ErrInvalidCustomerID
	}
	return id, nil
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return toInt64(f)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return toInt64(f)
	default:
		return 0, false
	}
}
