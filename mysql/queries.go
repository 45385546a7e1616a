package mysql

import "fmt"

type queries struct {
	selectValue string
	upsert      string
	remove      string
}

func newQueries(table string) queries {
	return queries{
		selectValue: fmt.Sprintf("SELECT store_value FROM %s WHERE store_key = ?", table),
		upsert: fmt.Sprintf(
			"INSERT INTO %s (store_key, store_value, updated_at) VALUES (?, ?, ?) "+
				"ON DUPLICATE KEY UPDATE store_value = VALUES(store_value), updated_at = VALUES(updated_at)",
			table,
		),
		remove: fmt.Sprintf("DELETE FROM %s WHERE store_key = ?", table),
	}
}
