package persistence

import (
	"slices"
	"strings"

	"gorm.io/gorm/clause"
)

// messageSortColumns are the mail_message columns a listing may sort on
var messageSortColumns = []string{
	"id", "date", "created_at", "updated_at", "subject",
	"model", "res_id", "message_type", "author_id",
}

// sortColumn returns field when it is one of allowed, else fallback
func sortColumn(field string, allowed []string, fallback string) string {
	field = strings.TrimSpace(field)
	if slices.Contains(allowed, field) {
		return field
	}
	return fallback
}

// descending is true unless dir spells asc
func descending(dir string) bool {
	return !strings.EqualFold(strings.TrimSpace(dir), "asc")
}

// messageOrder sorts on a whitelisted column and breaks ties on id, newest
// first, so pages never overlap.
func messageOrder(field, dir string) clause.OrderBy {
	col := sortColumn(field, messageSortColumns, "id")
	cols := []clause.OrderByColumn{{
		Column: clause.Column{Table: "mail_message", Name: col},
		Desc:   descending(dir),
	}}
	if col != "id" {
		cols = append(cols, clause.OrderByColumn{
			Column: clause.Column{Table: "mail_message", Name: "id"},
			Desc:   true,
		})
	}
	return clause.OrderBy{Columns: cols}
}
