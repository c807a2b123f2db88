package sqlitememory

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"
)

// timeLayout is the on-disk representation of every timestamp column.
const timeLayout = "2006-01-02 15:04:05.000000"

// readLayouts are accepted when reading rows written by other tools.
var readLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// dbTime scans a timestamp column. The driver returns time.Time for columns
// declared DATETIME and plain text for computed expressions such as MIN().
type dbTime struct {
	Time  time.Time
	Valid bool
}

var (
	_ sql.Scanner   = (*dbTime)(nil)
	_ driver.Valuer = dbTime{}
)

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("sqlitememory: cannot scan %T into timestamp", src)
	}
}

func (t *dbTime) parse(s string) error {
	for _, layout := range readLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = parsed.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("sqlitememory: unrecognized timestamp %q", s)
}

// Value renders the timestamp in the on-disk layout.
func (t dbTime) Value() (driver.Value, error) {
	if !t.Valid {
		return nil, nil
	}
	return formatTime(t.Time), nil
}
