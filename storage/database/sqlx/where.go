package sqlxrepos

import (
	"strconv"
	"strings"
)

// where accumulates AND-ed conditions with positional Postgres placeholders.
type where struct {
	conds []string
	args  []interface{}
}

// add appends cond, where "?" stands for the next placeholder.
func (w *where) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.Replace(cond, "?", "$"+strconv.Itoa(len(w.args)), 1))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (w *where) placeholder(arg interface{}) string {
	w.args = append(w.args, arg)
	return "$" + strconv.Itoa(len(w.args))
}
