package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var dateParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// parseDueDate accepts RFC 3339, a plain date, or an English phrase such as
// "next friday" or "in 3 days", resolved against now.
func parseDueDate(raw string, now time.Time) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return &t, nil
	}

	r, err := dateParser.Parse(raw, now)
	if err != nil {
		return nil, fmt.Errorf("parse due date %q: %w", raw, err)
	}
	if r == nil {
		return nil, fmt.Errorf("parse due date %q: unrecognised", raw)
	}
	t := r.Time.UTC()
	return &t, nil
}
