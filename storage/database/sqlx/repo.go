// Package sqlxrepos implements the user, curriculum and inbox repositories on Postgres with sqlx.
package sqlxrepos

import (
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/mentora/core"
)

// trapNoRowsErr maps psql "no rows" err to `notFound`
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// orderBy builds an ORDER BY clause out of the allowed fields only; unknown fields are ignored.
func orderBy(ordering []core.DBOrdering, allowed map[string]bool, fallback string) string {
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if allowed[ord.Field] {
			orderList = append(orderList, ord.String())
		}
	}
	if len(orderList) == 0 {
		return " ORDER BY " + fallback
	}
	return " ORDER BY " + strings.Join(orderList, ", ")
}

var sqlReadOnly = sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
