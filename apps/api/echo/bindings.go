package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nuvatw/nuva-club/core"
)

const (
	orderingParam = "ordering"
	limitParam    = "limit"
	offsetParam   = "offset"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind parses "?ordering=-created_at,name".
func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindPage reads "?limit=&offset="; invalid numbers are ignored.
func bindPage(ctx echo.Context) core.Page {
	var p core.Page
	if n, err := strconv.Atoi(ctx.QueryParam(limitParam)); err == nil {
		p.Limit = n
	}
	if n, err := strconv.Atoi(ctx.QueryParam(offsetParam)); err == nil {
		p.Offset = n
	}
	return p.Normalize()
}

// bindInt reads an optional integer query parameter.
func bindInt(ctx echo.Context, name string) int {
	n, _ := strconv.Atoi(ctx.QueryParam(name))
	return n
}
