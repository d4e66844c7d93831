package cronparser

import (
	"fmt"
	"strings"
	"time"

	cron "github.com/netresearch/go-cron"
)

var _standard = cron.MustNewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// Parser turns a workload restartSchedule into concrete restart times.
type Parser struct{}

// New creates a new cron parser.
func New() *Parser {
	return &Parser{}
}

// Validate checks a five-field cron expression together with its optional timezone.
func (p *Parser) Validate(expr, tz string) error {
	_, err := p.schedule(expr, tz)

	return err
}

// NextAfter returns the first occurrence strictly after `after`.
// tz is applied unless expr carries its own CRON_TZ=/TZ= prefix; UTC otherwise.
func (p *Parser) NextAfter(expr, tz string, after time.Time) (time.Time, error) {
	schedule, err := p.schedule(expr, tz)
	if err != nil {
		return time.Time{}, err
	}

	return schedule.Next(after), nil
}

func (p *Parser) schedule(expr, tz string) (cron.Schedule, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("parse cron expression: empty")
	}

	schedule, err := _standard.Parse(withZone(expr, tz))
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", expr, err)
	}

	return schedule, nil
}

func withZone(expr, tz string) string {
	if strings.HasPrefix(expr, "CRON_TZ=") || strings.HasPrefix(expr, "TZ=") {
		return expr
	}

	if tz == "" {
		tz = "UTC"
	}

	return "CRON_TZ=" + tz + " " + expr
}
