// Package pages composes the back-office entity pages from the generic
// list and save pages.
package pages

import (
	"log/slog"
	"maps"
	"time"

	"github.com/pthm/hxadmin"
	"github.com/pthm/hxadmin/lib/query"
)

// Deps are shared by every entity page.
type Deps struct {
	Transport hxadmin.Transport
	PageSize  int
	Logger    *slog.Logger
	// Now is used by date rules. Defaults to time.Now.
	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.PageSize < 1 {
		d.PageSize = query.DefaultPageSize
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

func (d Deps) codec(filters ...string) *query.Codec {
	return query.NewCodec(query.State{PageSize: d.PageSize}, filters...)
}

// Entity is the list and save page pair of one entity.
type Entity[T any] struct {
	Path string
	List *hxadmin.ListPage[T]
	Save *hxadmin.SavePage
}

// with returns a copy of values with extra merged in.
func with(values hxadmin.Values, extra hxadmin.Values) hxadmin.Values {
	out := maps.Clone(values)
	if out == nil {
		out = hxadmin.Values{}
	}
	maps.Copy(out, extra)
	return out
}

// formatDate renders a date value the way the backend stores it.
func formatDate(v any) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	return t.Format("02/01/2006") + " 00:00:00"
}

// displayDate shortens a backend timestamp to its date part.
func displayDate(s string) string {
	for _, layout := range []string{"02/01/2006 15:04:05", "02/01/2006", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return s
}
